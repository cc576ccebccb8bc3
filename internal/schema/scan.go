package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
)

const tagName = "anvil"

var (
	elementType  = reflect.TypeOf((*element.Element)(nil)).Elem()
	enumType     = reflect.TypeOf((*Enum)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
	nodesType    = reflect.TypeOf([]*markup.Node(nil))
)

type tag struct {
	name     string
	kind     string
	required bool
	noexpand bool
	existing bool
	item     string
}

func parseTag(t reflect.Type, f reflect.StructField, raw string) tag {
	parts := strings.Split(raw, ",")
	if len(parts) < 2 || parts[0] == "" && parts[1] != "children" {
		panic(fmt.Sprintf("schema: %s.%s: tag %q needs a name and a kind", t, f.Name, raw))
	}
	tg := tag{name: parts[0], kind: parts[1]}
	for _, opt := range parts[2:] {
		switch {
		case opt == "required":
			tg.required = true
		case opt == "noexpand":
			tg.noexpand = true
		case opt == "existing":
			tg.existing = true
		case strings.HasPrefix(opt, "item="):
			tg.item = strings.TrimPrefix(opt, "item=")
		default:
			panic(fmt.Sprintf("schema: %s.%s: unknown tag option %q", t, f.Name, opt))
		}
	}
	return tg
}

type scanner struct {
	root  reflect.Type
	spec  *Spec
	attrs map[string]bool
	elems map[string]bool
}

func build(t reflect.Type) *Spec {
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("schema: %s is not a struct type", t))
	}
	s := &scanner{
		root:  t,
		spec:  &Spec{Type: t},
		attrs: map[string]bool{},
		elems: map[string]bool{},
	}
	s.walk(t, nil)
	return s.spec
}

func (s *scanner) walk(t reflect.Type, prefix []int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		raw, tagged := f.Tag.Lookup(tagName)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && !tagged {
			s.walk(f.Type, index)
			continue
		}
		if !tagged || raw == "-" {
			continue
		}
		if !f.IsExported() {
			panic(fmt.Sprintf("schema: %s.%s: tagged field must be exported", s.root, f.Name))
		}
		s.field(f, index, parseTag(s.root, f, raw))
	}
}

func (s *scanner) field(f reflect.StructField, index []int, tg tag) {
	switch tg.kind {
	case "attr", "label", "framework":
		s.claimAttr(f, tg.name)
		a := &Attribute{
			Name:      tg.name,
			Required:  tg.required,
			Expand:    !tg.noexpand,
			Index:     index,
			Type:      f.Type,
			Coercion:  coercionFor(s.root, f),
			Label:     -1,
			Framework: tg.kind == "framework",
		}
		if v, ok := f.Tag.Lookup("validate"); ok {
			a.Validators = parseValidators(s.root, f, v)
		}
		if d, ok := f.Tag.Lookup("deprecated"); ok {
			a.Deprecated = parseDeprecation(s.root, f, d)
		}
		switch tg.kind {
		case "label":
			a.Label = len(s.spec.Labels)
			s.spec.Labels = append(s.spec.Labels, a)
		case "framework":
			s.spec.Framework = append(s.spec.Framework, a)
		default:
			s.spec.Attributes = append(s.spec.Attributes, a)
		}
		s.spec.All = append(s.spec.All, a)

	case "element":
		s.claimElem(f, tg.name)
		if f.Type.Kind() != reflect.Interface && !(f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct) {
			panic(fmt.Sprintf("schema: %s.%s: element field must be a struct pointer or an interface", s.root, f.Name))
		}
		if !f.Type.Implements(elementType) {
			panic(fmt.Sprintf("schema: %s.%s: %s does not implement element.Element", s.root, f.Name, f.Type))
		}
		e := &Element{Name: tg.name, Required: tg.required, Index: index, Type: f.Type, Existing: tg.existing}
		s.spec.Elements = append(s.spec.Elements, e)
		s.spec.All = append(s.spec.All, e)

	case "elements", "collection":
		s.claimElem(f, tg.name)
		c := &Collection{Name: tg.name, Required: tg.required, Index: index, FieldType: f.Type}
		if tg.kind == "collection" {
			if tg.item == "" {
				panic(fmt.Sprintf("schema: %s.%s: wrapped collection needs item=<name>", s.root, f.Name))
			}
			c.Shape = Wrapped
			c.ItemName = tg.item
		}
		c.Target, c.ItemType, c.Invalid = collectionTarget(f.Type)
		s.spec.Collections = append(s.spec.Collections, c)
		s.spec.All = append(s.spec.All, c)

	case "children":
		if f.Type != nodesType {
			panic(fmt.Sprintf("schema: %s.%s: children field must be []*markup.Node", s.root, f.Name))
		}
		if s.spec.Children != nil {
			panic(fmt.Sprintf("schema: %s: more than one children field", s.root))
		}
		s.spec.Children = &Children{Index: index}
		s.spec.All = append(s.spec.All, s.spec.Children)

	default:
		panic(fmt.Sprintf("schema: %s.%s: unknown binding kind %q", s.root, f.Name, tg.kind))
	}
}

func (s *scanner) claimAttr(f reflect.StructField, name string) {
	if s.attrs[name] {
		panic(fmt.Sprintf("schema: %s.%s: duplicate attribute name %q", s.root, f.Name, name))
	}
	s.attrs[name] = true
}

func (s *scanner) claimElem(f reflect.StructField, name string) {
	if s.elems[name] {
		panic(fmt.Sprintf("schema: %s.%s: duplicate element name %q", s.root, f.Name, name))
	}
	s.elems[name] = true
}

func coercionFor(root reflect.Type, f reflect.StructField) Coercion {
	t := f.Type
	if t.Implements(enumType) {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return EnumName
		}
		panic(fmt.Sprintf("schema: %s.%s: enum type %s must have an integer kind", root, f.Name, t))
	}
	if t == durationType {
		return Duration
	}
	switch t.Kind() {
	case reflect.String:
		return Text
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Primitive
	}
	panic(fmt.Sprintf("schema: %s.%s: unsupported attribute type %s", root, f.Name, t))
}

// collectionTarget classifies the Go shape of a collection field.
func collectionTarget(t reflect.Type) (Target, reflect.Type, error) {
	if t.Kind() == reflect.Slice {
		item := t.Elem()
		if err := checkItem(item); err != nil {
			return Slice, nil, err
		}
		return Slice, item, nil
	}

	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		m, ok := t.MethodByName("Add")
		if !ok {
			return Container, nil, fmt.Errorf("%s is neither a slice nor a container with an Add method", t)
		}
		// Method type includes the receiver.
		if m.Type.NumIn() != 2 {
			return Container, nil, fmt.Errorf("%s.Add must take exactly one member", t)
		}
		item := m.Type.In(1)
		if err := checkItem(item); err != nil {
			return Container, nil, err
		}
		return Container, item, nil
	}

	return Slice, nil, fmt.Errorf("%s is neither a slice nor a container with an Add method", t)
}

func checkItem(item reflect.Type) error {
	if item.Kind() != reflect.Pointer || item.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("collection member type %s must be a struct pointer", item)
	}
	if !item.Implements(elementType) {
		return fmt.Errorf("collection member type %s does not implement element.Element", item)
	}
	return nil
}

func parseDeprecation(root reflect.Type, f reflect.StructField, raw string) *Deprecation {
	sev, msg, _ := strings.Cut(raw, ":")
	d := &Deprecation{Message: strings.TrimSpace(msg)}
	switch strings.TrimSpace(sev) {
	case "warn":
		d.Severity = SeverityWarn
	case "error":
		d.Severity = SeverityError
	default:
		panic(fmt.Sprintf("schema: %s.%s: deprecated tag must start with warn: or error:", root, f.Name))
	}
	return d
}
