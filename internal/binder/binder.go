package binder

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/expand"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/schema"
)

// Binder binds markup to elements. Configure it with Quiet before sharing
// it; afterwards it is safe for concurrent use.
type Binder struct {
	registry *registry.Registry
	expander *expand.Expander
	quiet    map[reflect.Type]bool
}

// New creates a Binder that instantiates registered elements from reg.
func New(reg *registry.Registry, x *expand.Expander) *Binder {
	if x == nil {
		x = expand.New()
	}
	return &Binder{registry: reg, expander: x, quiet: map[reflect.Type]bool{}}
}

// Quiet suppresses unused-input reports for the types of samples.
func (b *Binder) Quiet(samples ...element.Element) {
	for _, s := range samples {
		b.quiet[reflect.TypeOf(s)] = true
	}
}

// Expander returns the expander used for attribute text.
func (b *Binder) Expander() *expand.Expander { return b.expander }

// Bind binds node into target, which becomes owned by project and nested
// under parent.
func (b *Binder) Bind(ctx context.Context, node *markup.Node, target element.Element, project *element.Project, parent element.Element) error {
	base := target.ElementBase()
	base.Project = project
	base.Parent = parent
	base.Node = node

	loc, err := project.Locations.Lookup(node)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Location of build element is unknown.", "element", node.Name, "error", err)
	}
	base.Location = loc

	return b.bind(ctx, node, target)
}

// BindInto binds node into an existing instance, keeping its project and
// parent.
func (b *Binder) BindInto(ctx context.Context, node *markup.Node, target element.Element) error {
	base := target.ElementBase()
	if base.Project == nil {
		return diag.Configf(markup.Unknown, "<%s> cannot be bound before it belongs to a project", node.Name)
	}
	return b.Bind(ctx, node, target, base.Project, base.Parent)
}

// New creates the registered element named by node, binds it and resolves
// it if it is a reference.
func (b *Binder) New(ctx context.Context, node *markup.Node, project *element.Project, parent element.Element) (element.Element, error) {
	entry, ok := b.registry.Lookup(node.Name)
	if !ok {
		loc, _ := project.Locations.Lookup(node)
		return nil, diag.Configf(loc, "Invalid element <%s>. Unknown task or datatype.", node.Name)
	}
	inst := entry.New()
	if d, ok := inst.(element.Defaulter); ok {
		d.SetDefaults()
	}
	if err := b.Bind(ctx, node, inst, project, parent); err != nil {
		return nil, err
	}
	return b.resolve(inst, entry.Type, project, parent)
}

// Registry returns the registry New instantiates from.
func (b *Binder) Registry() *registry.Registry { return b.registry }

func (b *Binder) bind(ctx context.Context, node *markup.Node, target element.Element) error {
	spec := schema.Of(target)
	st := &state{
		Binder: b,
		ctx:    ctx,
		logger: ctxlog.FromContext(ctx),
		node:   node,
		target: target,
		base:   target.ElementBase(),
		value:  reflect.ValueOf(target).Elem(),
		spec:   spec,
		used:   map[string]bool{},
		labels: map[int]bool{},
		kids:   map[string]bool{},
	}

	for _, binding := range spec.All {
		var err error
		switch bd := binding.(type) {
		case *schema.Attribute:
			switch {
			case bd.Framework:
				err = st.framework(bd)
			case bd.Label >= 0:
				err = st.label(bd)
			default:
				err = st.attribute(bd)
			}
		case *schema.Element:
			err = st.element(bd)
		case *schema.Collection:
			err = st.collection(bd)
		case *schema.Children:
			st.children(bd)
		}
		if err != nil {
			return err
		}
	}

	if !b.quiet[reflect.TypeOf(target)] {
		st.reportUnused()
	}
	return nil
}

// state is the bookkeeping of one Bind call.
type state struct {
	*Binder
	ctx    context.Context
	logger *slog.Logger
	node   *markup.Node
	target element.Element
	base   *element.Base
	value  reflect.Value
	spec   *schema.Spec
	used   map[string]bool
	labels map[int]bool
	kids   map[string]bool
}

func (st *state) field(index []int) reflect.Value {
	return st.value.FieldByIndex(index)
}

func (st *state) reportUnused() {
	for _, a := range st.node.Attrs {
		if !st.used[a.Name] {
			st.logger.Info("Unused attribute.",
				"attribute", a.Name,
				"element", st.node.Name,
				"location", markup.LocationFromRange(a.Range).String())
		}
	}
	for i, l := range st.node.Labels {
		if !st.labels[i] {
			st.logger.Info("Unused label.", "label", l, "element", st.node.Name, "location", st.base.Location.String())
		}
	}
	reported := map[string]bool{}
	for _, c := range st.node.Children {
		if st.kids[c.Name] || reported[c.Name] {
			continue
		}
		reported[c.Name] = true
		st.logger.Info("Unused element.", "child", c.Name, "element", st.node.Name, "location", st.base.Location.String())
	}
}
