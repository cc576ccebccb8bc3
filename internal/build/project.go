package build

import (
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
)

// Root is the bound <project> element.
type Root struct {
	element.Base
	Name        string         `anvil:"name,label"`
	Default     string         `anvil:"default,attr"`
	BaseDir     string         `anvil:"basedir,attr"`
	Description string         `anvil:"description,attr"`
	Targets     []*Target      `anvil:"target,elements"`
	Body        []*markup.Node `anvil:",children"`
}

// ElementKind implements element.Kinded.
func (r *Root) ElementKind() element.Kind { return element.KindProject }

// Target returns the target called name.
func (r *Root) Target(name string) (*Target, bool) {
	for _, t := range r.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Target is a bound <target> element. Its tasks stay as markup until the
// target runs.
type Target struct {
	element.Base
	Name        string         `anvil:"name,label,required" validate:"string(nonempty)"`
	Description string         `anvil:"description,attr"`
	If          bool           `anvil:"if,attr"`
	Unless      bool           `anvil:"unless,attr"`
	Body        []*markup.Node `anvil:",children"`
}

// SetDefaults implements element.Defaulter.
func (t *Target) SetDefaults() { t.If = true }

// ElementKind implements element.Kinded.
func (t *Target) ElementKind() element.Kind { return element.KindTarget }
