// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"fmt"
	"reflect"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/markup"
)

// Element is implemented by every bindable object, normally by embedding
// Base.
type Element interface {
	ElementBase() *Base
}

// Kind tells the framework settings lookup how an element contributes to
// its scope path.
type Kind int

const (
	KindElement Kind = iota
	KindTask
	// KindTarget and KindProject elements are skipped in scope paths.
	KindTarget
	KindProject
)

// Kinded is implemented by elements that are not plain elements.
type Kinded interface {
	ElementKind() Kind
}

// KindOf returns the kind of e.
func KindOf(e Element) Kind {
	if k, ok := e.(Kinded); ok {
		return k.ElementKind()
	}
	return KindElement
}

// SinkProvider is implemented by elements that capture the output of their
// descendants, such as a task that runs its body asynchronously.
type SinkProvider interface {
	LogSink() buildlog.Sink
}

// Base is the state shared by every bound element.
type Base struct {
	Location markup.Location
	Project  *Project
	// Parent is the enclosing element, nil for top-level elements.
	Parent Element
	// Node is the markup the element was bound from.
	Node *markup.Node
}

// ElementBase implements Element.
func (b *Base) ElementBase() *Base { return b }

// Name is the element's markup name.
func (b *Base) Name() string {
	if b.Node == nil {
		return ""
	}
	return b.Node.Name
}

// Sink returns where the element's output goes: the nearest enclosing
// SinkProvider, otherwise the project sink.
func (b *Base) Sink() buildlog.Sink {
	for p := b.Parent; p != nil; p = p.ElementBase().Parent {
		if sp, ok := p.(SinkProvider); ok {
			if s := sp.LogSink(); s != nil {
				return s
			}
		}
	}
	if b.Project != nil && b.Project.Sink != nil {
		return b.Project.Sink
	}
	return buildlog.Discard
}

// Log emits a build output event on behalf of the element.
func (b *Base) Log(level buildlog.Level, format string, args ...any) {
	b.Sink().Emit(buildlog.Event{
		Level:    level,
		Message:  fmt.Sprintf(format, args...),
		Element:  b.Name(),
		Location: b.Location,
	})
}

// Stamp sets the ownership fields of e.
func Stamp(e Element, project *Project, parent Element) {
	b := e.ElementBase()
	b.Project = project
	b.Parent = parent
}

// Chain returns e and its ancestors, innermost first.
func Chain(e Element) []Element {
	var out []Element
	for cur := e; cur != nil; cur = cur.ElementBase().Parent {
		out = append(out, cur)
	}
	return out
}

// Defaulter is implemented by elements whose zero value is not their
// default state.
type Defaulter interface {
	SetDefaults()
}

// Construct allocates a fresh instance of the struct pointer type t and
// applies its defaults.
func Construct(t reflect.Type) Element {
	e := reflect.New(t.Elem()).Interface().(Element)
	if d, ok := e.(Defaulter); ok {
		d.SetDefaults()
	}
	return e
}
