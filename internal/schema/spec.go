package schema

import (
	"reflect"
	"sync"
)

// Coercion selects how attribute text becomes a field value.
type Coercion int

const (
	// Text assigns the string as is.
	Text Coercion = iota
	// Primitive converts through go-cty into a bool or number field.
	Primitive
	// EnumName matches one of the names listed by the field type's
	// EnumNames method.
	EnumName
	// Duration parses a time.Duration.
	Duration
)

// Enum is implemented by integer types bound by name. Value i of the type
// is named EnumNames()[i].
type Enum interface {
	EnumNames() []string
}

// Severity of a deprecated attribute's diagnostic.
type Severity int

const (
	SeverityWarn Severity = iota
	SeverityError
)

// Deprecation marks an attribute as deprecated.
type Deprecation struct {
	Severity Severity
	Message  string
}

// Binding is any member of a Spec.
type Binding interface {
	MemberName() string
	FieldIndex() []int
}

// Attribute binds attribute text, a block label or a framework setting to a
// field.
type Attribute struct {
	Name       string
	Required   bool
	Expand     bool
	Index      []int
	Type       reflect.Type
	Coercion   Coercion
	Validators []Validator
	Deprecated *Deprecation
	// Label is the block label position for label bindings, -1 otherwise.
	Label int
	// Framework is set for framework setting bindings.
	Framework bool
}

func (a *Attribute) MemberName() string { return a.Name }
func (a *Attribute) FieldIndex() []int  { return a.Index }

// Element binds one nested element to a field.
type Element struct {
	Name     string
	Required bool
	Index    []int
	// Type is the declared field type: a pointer to a struct, or an
	// interface for abstract declarations.
	Type     reflect.Type
	Existing bool
}

func (e *Element) MemberName() string { return e.Name }
func (e *Element) FieldIndex() []int  { return e.Index }

// Abstract reports whether the declared type cannot be instantiated.
func (e *Element) Abstract() bool { return e.Type.Kind() == reflect.Interface }

// Shape is how collection members appear in markup.
type Shape int

const (
	// Flat members are repeated direct children named after the binding.
	Flat Shape = iota
	// Wrapped members sit inside exactly one wrapper child.
	Wrapped
)

// Target is the Go shape receiving collection members.
type Target int

const (
	// Slice fields are replaced in full.
	Slice Target = iota
	// Container fields hold a value with an Add method; members are
	// appended.
	Container
)

// Collection binds repeated nested elements to a field.
type Collection struct {
	Name     string
	Required bool
	Index    []int
	Shape    Shape
	// ItemName names the members inside the wrapper of a Wrapped
	// collection.
	ItemName string
	Target   Target
	// FieldType is the declared field type.
	FieldType reflect.Type
	// ItemType is the member type, always a pointer to a struct.
	ItemType reflect.Type
	// Invalid is set when the field's type cannot receive members.
	Invalid error
}

func (c *Collection) MemberName() string { return c.Name }
func (c *Collection) FieldIndex() []int  { return c.Index }

// MemberNodeName returns the markup name of the members.
func (c *Collection) MemberNodeName() string {
	if c.Shape == Wrapped {
		return c.ItemName
	}
	return c.Name
}

// Children keeps unclaimed nested elements as markup.
type Children struct {
	Index []int
}

func (c *Children) MemberName() string { return "" }
func (c *Children) FieldIndex() []int  { return c.Index }

// Spec is the binding specification of one struct type.
type Spec struct {
	Type        reflect.Type
	Labels      []*Attribute
	Attributes  []*Attribute
	Framework   []*Attribute
	Elements    []*Element
	Collections []*Collection
	Children    *Children
	// All lists every binding in declaration order, embedded structs
	// first.
	All []Binding
}

// Claims reports whether a child element named name is consumed by an
// element or collection binding.
func (s *Spec) Claims(name string) bool {
	for _, e := range s.Elements {
		if e.Name == name {
			return true
		}
	}
	for _, c := range s.Collections {
		if c.Name == name {
			return true
		}
	}
	return false
}

var cache sync.Map // reflect.Type -> *Spec

// For returns the spec of t, building it on first use. t may be a struct
// type or a pointer to one.
func For(t reflect.Type) *Spec {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := cache.Load(t); ok {
		return s.(*Spec)
	}
	s := build(t)
	actual, _ := cache.LoadOrStore(t, s)
	return actual.(*Spec)
}

// Of returns the spec of v's type.
func Of(v any) *Spec {
	return For(reflect.TypeOf(v))
}
