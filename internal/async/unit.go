package async

import (
	"sync/atomic"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/markup"
)

// State is the lifecycle position of a Unit.
type State int32

const (
	Idle State = iota
	Registered
	Running
	CompletedOk
	CompletedWithFailure
	Joined
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Registered:
		return "registered"
	case Running:
		return "running"
	case CompletedOk:
		return "completed"
	case CompletedWithFailure:
		return "failed"
	case Joined:
		return "joined"
	default:
		return "unknown"
	}
}

// Unit is one forked body.
type Unit struct {
	name     string
	location markup.Location
	buffer   buildlog.Buffer
	state    atomic.Int32
	// err is written by the unit goroutine before done is closed.
	err    error
	joined bool
	done   chan struct{}
}

func newUnit(name string, loc markup.Location) *Unit {
	u := &Unit{name: name, location: loc, done: make(chan struct{})}
	u.setState(Registered)
	return u
}

// Name returns the unit's unique name.
func (u *Unit) Name() string { return u.name }

// Location returns where the unit was forked.
func (u *Unit) Location() markup.Location { return u.location }

// State returns the current state.
func (u *Unit) State() State { return State(u.state.Load()) }

func (u *Unit) setState(s State) { u.state.Store(int32(s)) }

// Done is closed when the body has finished.
func (u *Unit) Done() <-chan struct{} { return u.done }

// Emit buffers an event until the unit is joined.
func (u *Unit) Emit(e buildlog.Event) { u.buffer.Emit(e) }

// Events returns the output buffered so far.
func (u *Unit) Events() []buildlog.Event { return u.buffer.Events() }
