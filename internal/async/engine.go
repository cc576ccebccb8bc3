package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/markup"
)

// Body is the work of a unit. Output written to sink is buffered on the
// unit.
type Body func(ctx context.Context, sink buildlog.Sink) error

// Engine is the registry of units of one build run.
type Engine struct {
	mu    sync.Mutex
	units map[string]*Unit
	order []*Unit
}

// NewEngine creates an empty Engine.
func NewEngine() *Engine {
	return &Engine{units: make(map[string]*Unit)}
}

// Fork registers a unit called name and starts body on its own goroutine.
// It returns as soon as the unit is registered.
func (e *Engine) Fork(ctx context.Context, name string, parent buildlog.Sink, loc markup.Location, body Body) (*Unit, error) {
	e.mu.Lock()
	if _, exists := e.units[name]; exists {
		e.mu.Unlock()
		return nil, diag.Configf(loc, "An async task has already been started with the name %s", name)
	}
	u := newUnit(name, loc)
	e.units[name] = u
	e.order = append(e.order, u)
	e.mu.Unlock()

	parent.Emit(buildlog.Event{
		Level:    buildlog.Info,
		Message:  fmt.Sprintf("Forking asynchronous task %q.", name),
		Element:  "async",
		Location: loc,
	})

	logger := ctxlog.FromContext(ctx).With("async_task", name)
	bodyCtx := ctxlog.WithLogger(context.WithoutCancel(ctx), logger)
	go e.run(bodyCtx, u, body)
	return u, nil
}

func (e *Engine) run(ctx context.Context, u *Unit, body Body) {
	logger := ctxlog.FromContext(ctx)
	u.setState(Running)
	logger.Debug("Async task started.")

	defer func() {
		if r := recover(); r != nil {
			u.err = fmt.Errorf("async task %q panicked: %v", u.name, r)
			logger.Error("Async task panicked.", "panic", r, "stack", string(debug.Stack()))
		}
		if u.err != nil {
			u.setState(CompletedWithFailure)
		} else {
			u.setState(CompletedOk)
		}
		logger.Debug("Async task finished.", "state", u.State().String())
		close(u.done)
	}()

	u.err = body(ctx, u)
}

// Lookup returns the unit registered under name.
func (e *Engine) Lookup(name string) (*Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.units[name]
	if !ok {
		return nil, diag.Configf(markup.Unknown, "Unable to find async task %s", name)
	}
	return u, nil
}

// Join waits for the unit called name, replays its output into into and
// returns its failure. Joining an already joined unit does nothing.
func (e *Engine) Join(ctx context.Context, name string, into buildlog.Sink) error {
	into.Emit(buildlog.Event{Level: buildlog.Info, Message: fmt.Sprintf("Joining asynchronous task %q.", name), Element: "join"})
	u, err := e.Lookup(name)
	if err != nil {
		return err
	}
	return e.join(ctx, u, into)
}

func (e *Engine) join(ctx context.Context, u *Unit, into buildlog.Sink) error {
	<-u.done

	e.mu.Lock()
	if u.joined {
		e.mu.Unlock()
		return nil
	}
	u.joined = true
	e.mu.Unlock()

	u.buffer.Replay(into)
	failed := u.State() == CompletedWithFailure
	u.setState(Joined)
	ctxlog.FromContext(ctx).Debug("Async task joined.", "async_task", u.name, "failed", failed)

	if u.err != nil {
		return fmt.Errorf("async task %q failed: %w", u.name, u.err)
	}
	return nil
}

// JoinAll joins every unjoined unit in registration order, stopping at the
// first failure.
func (e *Engine) JoinAll(ctx context.Context, into buildlog.Sink) error {
	first := true
	for {
		u := e.nextUnjoined()
		if u == nil {
			break
		}
		first = false
		into.Emit(buildlog.Event{Level: buildlog.Info, Message: fmt.Sprintf("Joining asynchronous task %q.", u.name), Element: "join"})
		if err := e.join(ctx, u, into); err != nil {
			return err
		}
	}
	if first {
		into.Emit(buildlog.Event{Level: buildlog.Info, Message: "No asynchronous tasks remaining to join.", Element: "join"})
	}
	return nil
}

func (e *Engine) nextUnjoined() *Unit {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.order {
		if !u.joined {
			return u
		}
	}
	return nil
}

// Pending returns the names of units that have not been joined, in
// registration order.
func (e *Engine) Pending() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, u := range e.order {
		if !u.joined {
			out = append(out, u.name)
		}
	}
	return out
}
