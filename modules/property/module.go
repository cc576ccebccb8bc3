// Package property sets build properties.
package property

import (
	"context"
	"fmt"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Property is the <property> task.
type Property struct {
	task.Base
	Name      string `anvil:"name,attr,required" validate:"string(nonempty)"`
	Value     string `anvil:"value,attr,required"`
	Overwrite bool   `anvil:"overwrite,attr"`
	ReadOnly  bool   `anvil:"readonly,attr"`
}

// SetDefaults implements element.Defaulter.
func (p *Property) SetDefaults() {
	p.Base.SetDefaults()
	p.Overwrite = true
}

// Execute stores the property.
func (p *Property) Execute(_ context.Context, _ *task.Runtime) error {
	props := p.Project.Properties
	if _, exists := props.Get(p.Name); exists && !p.Overwrite {
		p.Detail("Property '%s' already set, not overwriting.", p.Name)
		return nil
	}
	if props.IsReadOnly(p.Name) {
		p.Log(buildlog.Verbose, "Read-only property '%s' cannot be overwritten.", p.Name)
		return nil
	}

	set := props.Set
	if p.ReadOnly {
		set = props.SetReadOnly
	}
	if err := set(p.Name, p.Value); err != nil {
		return fmt.Errorf("cannot set property: %w", err)
	}
	p.Detail("%s = %s", p.Name, p.Value)
	return nil
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("property", func() element.Element { return new(Property) })
}
