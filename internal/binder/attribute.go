package binder

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/schema"
	"github.com/vk/anvil/internal/settings"
	"github.com/zclconf/go-cty/cty/gocty"
)

func (st *state) framework(a *schema.Attribute) error {
	project := st.base.Project
	value, ok := project.Settings.Lookup(project.Framework, scopeChain(st.target), a.Name)
	if !ok {
		if a.Required {
			return diag.Configf(st.base.Location,
				"'%s' is a required framework configuration setting for the '%s' build element that should be set in the settings file.",
				a.Name, st.node.Name)
		}
		return nil
	}

	if a.Expand {
		if fw, ok := project.CurrentFramework(); ok {
			expanded, err := st.expander.Expand(value, fw.Properties)
			if err != nil {
				if a.Required {
					return diag.Wrap(st.base.Location, err,
						"Framework setting '%s' for the '%s' build element could not be expanded", a.Name, st.node.Name)
				}
				st.logger.Debug("Discarding framework setting that could not be expanded.",
					"setting", a.Name, "element", st.node.Name, "error", err)
				return nil
			}
			value = expanded
		}
	}
	return st.assign(a, value, st.base.Location)
}

// scopeChain lists the settings scopes of e and its ancestors, innermost
// first.
func scopeChain(e element.Element) []settings.Scope {
	var chain []settings.Scope
	for _, cur := range element.Chain(e) {
		name := cur.ElementBase().Name()
		switch element.KindOf(cur) {
		case element.KindTask:
			chain = append(chain, settings.Scope{Kind: settings.TaskScope, Name: name})
		case element.KindElement:
			chain = append(chain, settings.Scope{Kind: settings.ElementScope, Name: name})
		}
	}
	return chain
}

func (st *state) label(a *schema.Attribute) error {
	if a.Label < len(st.node.Labels) {
		st.labels[a.Label] = true
		if _, dup := st.node.Attr(a.Name); dup {
			st.used[a.Name] = true
			return diag.Configf(st.base.Location, "'%s' of <%s> is given both as a label and as an attribute.", a.Name, st.node.Name)
		}
		return st.text(a, markup.Escape(st.node.Labels[a.Label]), st.base.Location)
	}
	return st.attribute(a)
}

func (st *state) attribute(a *schema.Attribute) error {
	attr, ok := st.node.Attr(a.Name)
	if !ok {
		if a.Required {
			return diag.Configf(st.base.Location, "'%s' is a required attribute of <%s ... />.", a.Name, st.node.Name)
		}
		return nil
	}
	st.used[a.Name] = true
	loc := markup.LocationFromRange(attr.Range)

	if d := a.Deprecated; d != nil {
		msg := fmt.Sprintf("Attribute %s for <%s> is deprecated: %s", a.Name, st.node.Name, d.Message)
		if d.Severity == schema.SeverityError {
			st.logger.Error(msg, "location", loc.String())
		} else {
			st.logger.Warn(msg, "location", loc.String())
		}
	}
	return st.text(a, attr.Value, loc)
}

// text expands template text and assigns the result.
func (st *state) text(a *schema.Attribute, text string, loc markup.Location) error {
	if a.Expand {
		expanded, err := st.expander.Expand(text, st.base.Project.Properties.Snapshot())
		if err != nil {
			return diag.Wrap(loc, err, "Attribute '%s' of <%s> could not be expanded", a.Name, st.node.Name)
		}
		text = expanded
	} else {
		text = markup.Unescape(text)
	}
	return st.assign(a, text, loc)
}

// assign validates value and stores it in a's field.
func (st *state) assign(a *schema.Attribute, value string, loc markup.Location) error {
	for _, v := range a.Validators {
		if err := v.Validate(value); err != nil {
			return diag.Wrap(loc, err, "Validation failed on '%s' of <%s>", a.Name, st.node.Name)
		}
	}

	field := st.field(a.Index)
	switch a.Coercion {
	case schema.Text:
		field.SetString(value)

	case schema.EnumName:
		names := reflect.Zero(a.Type).Interface().(schema.Enum).EnumNames()
		idx := -1
		for i, n := range names {
			if n == value {
				idx = i
				break
			}
		}
		if idx < 0 {
			return diag.Configf(loc, "Invalid value \"%s\". Valid values for this attribute are: %s",
				value, strings.Join(names, ", "))
		}
		if field.CanInt() {
			field.SetInt(int64(idx))
		} else {
			field.SetUint(uint64(idx))
		}

	case schema.Duration:
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return diag.Wrap(loc, err, "'%s' is not a valid value for attribute '%s' of <%s>", value, a.Name, st.node.Name)
		}
		field.SetInt(int64(d))

	case schema.Primitive:
		ty, err := gocty.ImpliedType(field.Interface())
		if err != nil {
			return diag.Wrap(loc, err, "attribute '%s' of <%s> has no cty equivalent", a.Name, st.node.Name)
		}
		conv, err := schema.ConvertText(value, ty)
		if err == nil {
			err = gocty.FromCtyValue(conv, field.Addr().Interface())
		}
		if err != nil {
			return diag.Wrap(loc, err, "'%s' is not a valid value for attribute '%s' of <%s>", value, a.Name, st.node.Name)
		}
	}
	return nil
}
