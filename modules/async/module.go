// Package async provides the <async> and <join> tasks, which run a block of
// tasks in the background and wait for it later.
package async

import (
	"context"
	"strings"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Async is the <async> task. Its body runs on its own goroutine and its
// output is held back until a <join> collects it.
type Async struct {
	task.Container
	TaskName string `anvil:"taskname,label,required" validate:"string(nonempty)"`

	// sink is set on the body goroutine before any nested task runs.
	sink buildlog.Sink
}

// LogSink implements element.SinkProvider.
func (a *Async) LogSink() buildlog.Sink { return a.sink }

// Execute forks the body and returns without waiting for it.
func (a *Async) Execute(ctx context.Context, rt *task.Runtime) error {
	_, err := rt.Async.Fork(ctx, a.TaskName, a.Sink(), a.Location, func(ctx context.Context, sink buildlog.Sink) error {
		a.sink = sink
		return a.ExecuteChildren(ctx, rt, a)
	})
	return err
}

// Join is the <join> task.
type Join struct {
	task.Base
	Task string `anvil:"task,attr"`
	All  bool   `anvil:"all,attr"`
}

// Names returns the task names listed in the task attribute.
func (j *Join) Names() []string {
	var out []string
	for _, s := range strings.Split(j.Task, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Execute waits for the named units, or for every unjoined one, and
// replays their output.
func (j *Join) Execute(ctx context.Context, rt *task.Runtime) error {
	names := j.Names()
	if len(names) == 0 && !j.All {
		return diag.Configf(j.Location, "Either specify tasks to join by setting \"task\", or set \"all\" to \"true\" to join all tasks.")
	}

	sink := j.Sink()
	if j.All {
		return rt.Async.JoinAll(ctx, sink)
	}
	for _, name := range names {
		if err := rt.Async.Join(ctx, name, sink); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the tasks with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("async", func() element.Element { return new(Async) })
	r.RegisterTask("join", func() element.Element { return new(Join) })
}
