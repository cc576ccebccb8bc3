package build

import (
	"context"
	"errors"

	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/schema"
)

// Check reports every element in the project's deferred bodies that is not
// registered. Attribute values are not checked, since they may depend on
// properties set while the build runs.
func (b *Build) Check(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	reg := b.binder.Registry()

	var errs []error
	var walk func(nodes []*markup.Node)
	walk = func(nodes []*markup.Node) {
		for _, n := range nodes {
			entry, ok := reg.Lookup(n.Name)
			if !ok {
				loc, _ := b.Project.Locations.Lookup(n)
				errs = append(errs, diag.Configf(loc, "Invalid element <%s>. Unknown task or datatype.", n.Name))
				continue
			}
			spec := schema.For(entry.Type)
			if spec.Children == nil {
				continue
			}
			var deferred []*markup.Node
			for _, c := range n.Children {
				if !spec.Claims(c.Name) {
					deferred = append(deferred, c)
				}
			}
			walk(deferred)
		}
	}

	walk(b.Root.Body)
	for _, t := range b.Root.Targets {
		walk(t.Body)
	}

	logger.Debug("Build file checked.", "errors", len(errs))
	return errors.Join(errs...)
}
