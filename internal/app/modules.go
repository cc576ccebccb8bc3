package app

import (
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/modules/async"
	"github.com/vk/anvil/modules/echo"
	"github.com/vk/anvil/modules/env_vars"
	"github.com/vk/anvil/modules/fail"
	"github.com/vk/anvil/modules/filter"
	"github.com/vk/anvil/modules/http_client"
	"github.com/vk/anvil/modules/patternset"
	"github.com/vk/anvil/modules/property"
	"github.com/vk/anvil/modules/sleep"
)

// coreModules is the definitive list of all modules that are compiled into
// the anvil binary.
var coreModules = []registry.Module{
	&async.Module{},
	&echo.Module{},
	&env_vars.Module{},
	&fail.Module{},
	&filter.Module{},
	&http_client.Module{},
	&patternset.Module{},
	&property.Module{},
	&sleep.Module{},
}
