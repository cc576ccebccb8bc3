// Package settings holds framework configuration: values that elements can
// pick up without the build file naming them, keyed by where the element
// sits in the build and by the selected framework.
//
// A setting is addressed by a scope path and an attribute name. The path
// lists the enclosing elements from the outside in, each either a task
// (`task:csc`) or a plain element (`element:resources`). A lookup matches a
// setting when the setting's path ends with the caller's chain, so a setting
// recorded under `task:compile` applies to every compile task wherever it
// appears. Framework-specific settings win over framework-neutral ones.
package settings

import (
	"fmt"
	"strings"
)

// ScopeKind distinguishes the two kinds of path segment.
type ScopeKind string

const (
	TaskScope    ScopeKind = "task"
	ElementScope ScopeKind = "element"
)

// Scope is one segment of a setting path.
type Scope struct {
	Kind ScopeKind
	Name string
}

func (s Scope) String() string { return string(s.Kind) + ":" + s.Name }

// ParseScope parses "task:name" or "element:name".
func ParseScope(s string) (Scope, error) {
	kind, name, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return Scope{}, fmt.Errorf("invalid scope %q: expected kind:name", s)
	}
	switch ScopeKind(kind) {
	case TaskScope, ElementScope:
		return Scope{Kind: ScopeKind(kind), Name: name}, nil
	default:
		return Scope{}, fmt.Errorf("invalid scope %q: kind must be task or element", s)
	}
}

// Setting is a single configured attribute value.
type Setting struct {
	// Framework is empty for framework-neutral settings.
	Framework string
	Path      []Scope
	Attribute string
	Value     string
}

// Framework is a named target framework and its properties.
type Framework struct {
	Name       string
	Properties map[string]string
}

// Store is an immutable collection of settings. The zero value is empty and
// ready to use.
type Store struct {
	frameworks map[string]*Framework
	settings   []Setting
}

// New creates a Store from frameworks and settings. Settings are searched in
// the order given.
func New(frameworks []*Framework, settings []Setting) *Store {
	s := &Store{frameworks: make(map[string]*Framework, len(frameworks))}
	for _, f := range frameworks {
		s.frameworks[f.Name] = f
	}
	s.settings = append(s.settings, settings...)
	return s
}

// Framework returns the framework called name.
func (s *Store) Framework(name string) (*Framework, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.frameworks[name]
	return f, ok
}

// Lookup finds the value of attr for an element whose enclosing chain is
// given innermost first. The framework-specific value is preferred; the
// framework-neutral value is the fallback.
func (s *Store) Lookup(framework string, chain []Scope, attr string) (string, bool) {
	if s == nil {
		return "", false
	}
	outerFirst := make([]Scope, len(chain))
	for i, sc := range chain {
		outerFirst[len(chain)-1-i] = sc
	}

	if framework != "" {
		if v, ok := s.find(framework, outerFirst, attr); ok {
			return v, true
		}
	}
	return s.find("", outerFirst, attr)
}

func (s *Store) find(framework string, path []Scope, attr string) (string, bool) {
	for _, st := range s.settings {
		if st.Framework != framework || st.Attribute != attr {
			continue
		}
		if hasSuffix(st.Path, path) {
			return st.Value, true
		}
	}
	return "", false
}

func hasSuffix(full, suffix []Scope) bool {
	if len(suffix) > len(full) {
		return false
	}
	off := len(full) - len(suffix)
	for i, sc := range suffix {
		if full[off+i] != sc {
			return false
		}
	}
	return true
}
