package binder

import (
	"reflect"

	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/schema"
)

func (st *state) element(e *schema.Element) error {
	st.kids[e.Name] = true
	found, diags := markup.FindUnique(st.node.Children, e.Name)
	if diags.HasErrors() {
		return diag.FromDiagnostics(diags)
	}
	if found == nil {
		if e.Required {
			return diag.Configf(st.base.Location, "'%s' is a required element of <%s ... />.", e.Name, st.node.Name)
		}
		return nil
	}

	field := st.field(e.Index)
	var inst element.Element
	if e.Existing && !field.IsNil() {
		inst = field.Interface().(element.Element)
	} else {
		if e.Abstract() {
			return diag.Configf(st.base.Location,
				"<%s> of <%s> is declared as the abstract type %s and cannot be created.", e.Name, st.node.Name, e.Type)
		}
		inst = element.Construct(e.Type)
	}

	bound, err := st.child(found, inst, e.Type)
	if err != nil {
		return err
	}
	field.Set(reflect.ValueOf(bound))
	return nil
}

func (st *state) collection(c *schema.Collection) error {
	st.kids[c.Name] = true
	if c.Invalid != nil {
		return diag.Wrap(st.base.Location, c.Invalid, "<%s> of <%s> cannot be bound", c.Name, st.node.Name)
	}

	var members []*markup.Node
	switch c.Shape {
	case schema.Flat:
		members = st.node.ChildrenNamed(c.Name)
	case schema.Wrapped:
		wrapper, diags := markup.FindUnique(st.node.Children, c.Name)
		if diags.HasErrors() {
			return diag.FromDiagnostics(diags)
		}
		if wrapper != nil {
			members = wrapper.ChildrenNamed(c.ItemName)
		}
	}

	if len(members) == 0 {
		if c.Required {
			return diag.Configf(st.base.Location,
				"Element Required! There must be at least one '%s' element for <%s>.", c.MemberNodeName(), st.node.Name)
		}
		return nil
	}

	items := make([]reflect.Value, 0, len(members))
	for _, m := range members {
		bound, err := st.child(m, element.Construct(c.ItemType), c.ItemType)
		if err != nil {
			return err
		}
		items = append(items, reflect.ValueOf(bound))
	}

	field := st.field(c.Index)
	switch c.Target {
	case schema.Slice:
		s := reflect.MakeSlice(c.FieldType, 0, len(items))
		field.Set(reflect.Append(s, items...))
	case schema.Container:
		if field.IsNil() {
			field.Set(reflect.New(c.FieldType.Elem()))
		}
		add := field.MethodByName("Add")
		for _, item := range items {
			add.Call([]reflect.Value{item})
		}
	}
	return nil
}

// child binds a nested node into inst and resolves references.
func (st *state) child(node *markup.Node, inst element.Element, declared reflect.Type) (element.Element, error) {
	project := st.base.Project
	if err := st.Bind(st.ctx, node, inst, project, st.target); err != nil {
		return nil, err
	}
	return st.resolve(inst, declared, project, st.target)
}

func (st *state) children(c *schema.Children) {
	var rest []*markup.Node
	for _, child := range st.node.Children {
		if st.spec.Claims(child.Name) {
			continue
		}
		st.kids[child.Name] = true
		rest = append(rest, child)
	}
	st.field(c.Index).Set(reflect.ValueOf(rest))
}
