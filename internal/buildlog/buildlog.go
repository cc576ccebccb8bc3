// Package buildlog is the user-facing output channel of a build. Elements
// emit Events into a Sink; what the sink does with them (print, buffer,
// forward) is up to the caller.
package buildlog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vk/anvil/internal/markup"
)

// Level is the severity of an Event.
type Level int

const (
	Debug Level = iota
	Verbose
	Info
	Warning
	Error
)

var levelNames = []string{"Debug", "Verbose", "Info", "Warning", "Error"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// EnumNames lists the level names by value, so a Level can be bound from
// a build file attribute.
func (Level) EnumNames() []string { return levelNames }

// ParseLevel parses a level name, ignoring case.
func ParseLevel(s string) (Level, error) {
	for i, n := range levelNames {
		if strings.EqualFold(n, s) {
			return Level(i), nil
		}
	}
	return Info, fmt.Errorf("unknown build log level %q", s)
}

// Event is one line of build output.
type Event struct {
	Level    Level
	Message  string
	Element  string
	Location markup.Location
}

// Sink receives build output.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Buffer keeps events in arrival order. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

func (b *Buffer) Emit(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

// Events returns a copy of the buffered events.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Messages returns the messages of the buffered events.
func (b *Buffer) Messages() []string {
	events := b.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Message
	}
	return out
}

// Replay re-emits every buffered event into sink, in order.
func (b *Buffer) Replay(sink Sink) {
	for _, e := range b.Events() {
		sink.Emit(e)
	}
}
