package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/vk/anvil/internal/async"
	"github.com/vk/anvil/internal/binder"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/settings"
	"github.com/vk/anvil/internal/task"
)

// Options configure how a document is loaded.
type Options struct {
	// Properties are set read-only before anything is bound.
	Properties map[string]string
	Settings   *settings.Store
	Framework  string
	// BaseDir is used when the project does not set basedir. Relative
	// basedir values are resolved against it.
	BaseDir string
	Sink    buildlog.Sink
}

// Engine loads build files against one registry.
type Engine struct {
	binder *binder.Binder
}

// New creates an Engine for the elements of reg.
func New(reg *registry.Registry) *Engine {
	b := binder.New(reg, nil)
	b.Quiet(&Root{}, &Target{})
	return &Engine{binder: b}
}

// Binder returns the engine's binder.
func (e *Engine) Binder() *binder.Binder { return e.binder }

// Build is a loaded project ready to run.
type Build struct {
	Project *element.Project
	Root    *Root
	binder  *binder.Binder
}

// Load binds the <project> element of doc and its targets.
func (e *Engine) Load(ctx context.Context, doc *markup.Document, opts Options) (*Build, error) {
	logger := ctxlog.FromContext(ctx)

	node, diags := markup.FindUnique(doc.Root.Children, "project")
	if diags.HasErrors() {
		return nil, diag.FromDiagnostics(diags)
	}
	if node == nil {
		return nil, diag.Configf(markup.Unknown, "Build file has no <project> element.")
	}
	for _, n := range doc.Root.Children {
		if n != node {
			loc, _ := doc.Locations.Lookup(n)
			return nil, diag.Configf(loc, "Invalid element <%s>. Only a single <project> is allowed at the top level.", n.Name)
		}
	}

	project := element.NewProject("", doc.Locations, opts.Sink)
	if opts.Settings != nil {
		project.Settings = opts.Settings
	}
	project.Framework = opts.Framework
	for name, value := range opts.Properties {
		if err := project.Properties.SetReadOnly(name, value); err != nil {
			return nil, fmt.Errorf("failed to set property %s: %w", name, err)
		}
	}

	root := &Root{}
	if err := e.binder.Bind(ctx, node, root, project, nil); err != nil {
		return nil, err
	}

	names := map[string]bool{}
	for _, t := range root.Targets {
		if names[t.Name] {
			return nil, diag.Configf(t.Location, "Duplicate target named '%s'!", t.Name)
		}
		names[t.Name] = true
	}

	project.Name = root.Name
	project.BaseDir = opts.BaseDir
	if root.BaseDir != "" {
		project.BaseDir = root.BaseDir
		if !filepath.IsAbs(root.BaseDir) && opts.BaseDir != "" {
			project.BaseDir = filepath.Join(opts.BaseDir, root.BaseDir)
		}
	}
	if err := setBuiltins(project); err != nil {
		return nil, err
	}

	logger.Debug("Project loaded.", "project", project.Name, "targets", len(root.Targets), "default", root.Default)
	return &Build{Project: project, Root: root, binder: e.binder}, nil
}

// setBuiltins defines the project.* properties and, when a framework is
// selected, framework.name plus one framework.<key> per framework property.
func setBuiltins(p *element.Project) error {
	builtins := map[string]string{
		"project.name":    p.Name,
		"project.basedir": p.BaseDir,
	}
	if p.Framework != "" {
		fw, ok := p.CurrentFramework()
		if !ok {
			return diag.Configf(markup.Unknown, "Framework '%s' is not defined in the settings file.", p.Framework)
		}
		builtins["framework.name"] = fw.Name
		for k, v := range fw.Properties {
			builtins["framework."+k] = v
		}
	}
	for name, value := range builtins {
		if _, exists := p.Properties.Get(name); !exists {
			_ = p.Properties.Set(name, value)
		}
	}
	return nil
}

// Run executes the project's top-level tasks and then each of targets, or
// the default target when none are given. Units that were forked but never
// joined are joined before Run returns.
func (b *Build) Run(ctx context.Context, targets ...string) error {
	rt := &task.Runtime{
		Binder: b.binder,
		Async:  async.NewEngine(),
		RunID:  uuid.NewString(),
	}
	ctx = ctxlog.With(ctx, "run_id", rt.RunID, "project", b.Project.Name)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build started.", "targets", targets)

	err := b.run(ctx, rt, targets)

	if pending := rt.Async.Pending(); len(pending) > 0 {
		logger.Warn("Asynchronous tasks were not joined.", "tasks", pending)
		b.Project.Sink.Emit(buildlog.Event{
			Level:   buildlog.Warning,
			Message: fmt.Sprintf("%d asynchronous task(s) were never joined; joining them now.", len(pending)),
		})
		// Every unit is waited on, even after a failure, so that none
		// outlives the run.
		var joinErrs []error
		for _, name := range pending {
			if joinErr := rt.Async.Join(ctx, name, b.Project.Sink); joinErr != nil {
				joinErrs = append(joinErrs, joinErr)
			}
		}
		err = errors.Join(append([]error{err}, joinErrs...)...)
	}

	if err != nil {
		logger.Debug("Build failed.", "error", err)
		return err
	}
	logger.Debug("Build finished.")
	return nil
}

func (b *Build) run(ctx context.Context, rt *task.Runtime, targets []string) error {
	for _, n := range b.Root.Body {
		if err := task.Run(ctx, rt, n, b.Project, b.Root); err != nil {
			return err
		}
	}

	if len(targets) == 0 {
		if b.Root.Default == "" {
			if len(b.Root.Targets) == 0 {
				return nil
			}
			return diag.Configf(b.Root.Location, "No target specified and no default target found.")
		}
		targets = []string{b.Root.Default}
	}

	for _, name := range targets {
		t, ok := b.Root.Target(name)
		if !ok {
			return diag.Configf(b.Root.Location, "Target '%s' does not exist in this project.", name)
		}
		if err := b.runTarget(ctx, rt, t); err != nil {
			return err
		}
	}
	return nil
}

func (b *Build) runTarget(ctx context.Context, rt *task.Runtime, t *Target) error {
	logger := ctxlog.FromContext(ctx).With("target", t.Name)
	if !t.If || t.Unless {
		logger.Debug("Target skipped by condition.")
		return nil
	}

	t.Sink().Emit(buildlog.Event{Level: buildlog.Info, Message: t.Name + ":", Location: t.Location})
	logger.Debug("Target started.")
	for _, n := range t.Body {
		if err := task.Run(ctx, rt, n, b.Project, t); err != nil {
			return err
		}
	}
	logger.Debug("Target finished.")
	return nil
}
