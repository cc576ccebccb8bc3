// Package task defines executable elements and runs them.
//
// Tasks are bound lazily: a container keeps its nested elements as markup
// and binds each one immediately before running it, so properties set by an
// earlier task are visible when a later task's attributes are expanded.
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/anvil/internal/async"
	"github.com/vk/anvil/internal/binder"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
)

// Task is an element that can be executed.
type Task interface {
	element.Element
	TaskBase() *Base
	Execute(ctx context.Context, rt *Runtime) error
}

// Runtime holds the services of one build run.
type Runtime struct {
	Binder *binder.Binder
	Async  *async.Engine
	RunID  string
}

// Base holds the attributes every task accepts.
type Base struct {
	element.Base
	FailOnError bool `anvil:"failonerror,attr"`
	If          bool `anvil:"if,attr"`
	Unless      bool `anvil:"unless,attr"`
	Verbose     bool `anvil:"verbose,attr"`
}

// TaskBase implements Task.
func (b *Base) TaskBase() *Base { return b }

// SetDefaults implements element.Defaulter.
func (b *Base) SetDefaults() {
	b.FailOnError = true
	b.If = true
}

// ElementKind marks tasks in framework settings scope paths.
func (b *Base) ElementKind() element.Kind { return element.KindTask }

// Detail logs at Info when the task is verbose and at Verbose otherwise.
func (b *Base) Detail(format string, args ...any) {
	level := buildlog.Verbose
	if b.Verbose {
		level = buildlog.Info
	}
	b.Log(level, format, args...)
}

// Run binds node and executes the result. Datatypes are registered by ID
// instead of executed.
func Run(ctx context.Context, rt *Runtime, node *markup.Node, project *element.Project, parent element.Element) error {
	inst, err := rt.Binder.New(ctx, node, project, parent)
	if err != nil {
		return err
	}

	if dt, ok := inst.(element.DataType); ok {
		Declare(ctx, dt)
		return nil
	}

	t, ok := inst.(Task)
	if !ok {
		return diag.Configf(inst.ElementBase().Location, "<%s> is not a task and cannot be run here.", node.Name)
	}
	return Execute(ctx, rt, t)
}

// Declare registers a datatype under its ID. Anonymous datatypes and
// references are left alone.
func Declare(ctx context.Context, dt element.DataType) {
	f := dt.DataTypeFields()
	if f.ID == "" || f.RefID != "" {
		return
	}
	if f.Project.References.Register(f.ID, dt) {
		ctxlog.FromContext(ctx).Debug("Replacing datatype reference.", "id", f.ID, "element", f.Name())
		f.Log(buildlog.Verbose, "Overwriting reference '%s'.", f.ID)
	}
}

// Execute runs t, honouring its if, unless and failonerror attributes.
func Execute(ctx context.Context, rt *Runtime, t Task) error {
	b := t.TaskBase()
	logger := ctxlog.FromContext(ctx).With("task", b.Name(), "location", b.Location.String())

	if !b.If || b.Unless {
		logger.Debug("Task skipped by condition.", "if", b.If, "unless", b.Unless)
		return nil
	}

	logger.Debug("Task started.")
	err := t.Execute(ctx, rt)
	if err == nil {
		logger.Debug("Task finished.")
		return nil
	}

	if !b.FailOnError {
		b.Log(buildlog.Error, "%v", err)
		logger.Info("Task failure ignored.", "error", err)
		return nil
	}

	var cfgErr *diag.ConfigError
	var taskErr *diag.TaskError
	if errors.As(err, &cfgErr) || errors.As(err, &taskErr) {
		return err
	}
	return &diag.TaskError{Task: b.Name(), Location: b.Location, Err: err}
}

// Container is a task that holds other tasks as markup.
type Container struct {
	Base
	Body []*markup.Node `anvil:",children"`
}

// ExecuteChildren runs the nested elements in order under self, which must
// be the concrete element embedding c.
func (c *Container) ExecuteChildren(ctx context.Context, rt *Runtime, self element.Element) error {
	if self.ElementBase() != &c.Base.Base {
		panic(fmt.Sprintf("task: ExecuteChildren called with foreign element %T", self))
	}
	for _, n := range c.Body {
		if err := Run(ctx, rt, n, c.Project, self); err != nil {
			return err
		}
	}
	return nil
}
