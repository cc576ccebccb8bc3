package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/vk/anvil/internal/element"
)

// Module is the interface that all built-in modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Kind tells what a registered name constructs.
type Kind int

const (
	KindTask Kind = iota
	KindDataType
)

func (k Kind) String() string {
	if k == KindDataType {
		return "datatype"
	}
	return "task"
}

// Factory constructs a fresh, unbound instance.
type Factory func() element.Element

// Entry is one registered name.
type Entry struct {
	Name string
	Kind Kind
	New  Factory
	Type reflect.Type
}

// Registry holds the element factories of a single application instance.
type Registry struct {
	entries map[string]*Entry
	names   map[reflect.Type]string
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		names:   make(map[reflect.Type]string),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterTask registers a task constructor under name.
func (r *Registry) RegisterTask(name string, f Factory) {
	r.register(name, KindTask, f)
}

// RegisterDataType registers a datatype constructor under name. The
// constructed value must implement element.DataType.
func (r *Registry) RegisterDataType(name string, f Factory) {
	if _, ok := f().(element.DataType); !ok {
		panic(fmt.Sprintf("datatype '%s' does not implement element.DataType", name))
	}
	r.register(name, KindDataType, f)
}

func (r *Registry) register(name string, kind Kind, f Factory) {
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("element with name '%s' already registered", name))
	}
	t := reflect.TypeOf(f())
	slog.Debug("Registering element.", "name", name, "kind", kind.String(), "type", t.String())
	r.entries[name] = &Entry{Name: name, Kind: kind, New: f, Type: t}
	if _, taken := r.names[t]; !taken {
		r.names[t] = name
	}
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// NameOf returns the name the type of v was first registered under.
func (r *Registry) NameOf(v any) (string, bool) {
	name, ok := r.names[reflect.TypeOf(v)]
	return name, ok
}

// Names returns every registered name of the given kind, sorted.
func (r *Registry) Names(kind Kind) []string {
	var out []string
	for name, e := range r.entries {
		if e.Kind == kind {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
