// Package filter provides the <filter> task, which keeps the items of a
// list that a pattern set selects.
package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
	"github.com/vk/anvil/modules/patternset"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Filter is the <filter> task.
type Filter struct {
	task.Base
	Property   string                 `anvil:"property,attr,required" validate:"string(nonempty)"`
	Items      string                 `anvil:"items,attr,required"`
	Separator  string                 `anvil:"separator,attr"`
	PatternSet *patternset.PatternSet `anvil:"patternset,element,required"`
}

// SetDefaults implements element.Defaulter.
func (f *Filter) SetDefaults() {
	f.Base.SetDefaults()
	f.Separator = ","
}

// Select returns the items the pattern set matches, in input order.
func (f *Filter) Select() []string {
	var out []string
	for _, item := range strings.Split(f.Items, f.Separator) {
		item = strings.TrimSpace(item)
		if item != "" && f.PatternSet.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Execute stores the selected items in the property.
func (f *Filter) Execute(_ context.Context, _ *task.Runtime) error {
	if f.Separator == "" {
		return fmt.Errorf("separator cannot be empty")
	}
	selected := f.Select()
	if err := f.Project.Properties.Set(f.Property, strings.Join(selected, f.Separator)); err != nil {
		return fmt.Errorf("cannot set property: %w", err)
	}
	f.Detail("%d of the items matched; stored in '%s'.", len(selected), f.Property)
	return nil
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("filter", func() element.Element { return new(Filter) })
}
