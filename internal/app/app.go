package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/anvil/internal/build"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/fsutil"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/settings"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	engine   *build.Engine
	loader   *markup.Loader
	config   *Config
	sink     buildlog.Sink
	files    map[string]*hcl.File
}

// New is the constructor for the main application. Build output goes to
// outW and structured logs to logW. With no modules the core set is
// registered.
func New(outW, logW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("registry validation failed: %w", err)
	}
	logger.Debug("Registry validation passed.")

	threshold, err := buildlog.ParseLevel(cfg.OutputLevel)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		engine:   build.New(reg),
		loader:   markup.NewLoader(),
		config:   cfg,
		sink:     buildlog.NewConsole(outW, threshold, cfg.NoColor),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Files returns the sources parsed by the last load, for rendering
// diagnostics.
func (a *App) Files() map[string]*hcl.File {
	return a.files
}

// Load locates, parses and binds the configured build file.
func (a *App) Load(ctx context.Context) (*build.Build, error) {
	logger := ctxlog.FromContext(ctx)

	path, err := fsutil.FindBuildFile(a.config.BuildFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build file located.", "path", path)

	doc, err := a.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	a.files = doc.Files

	store := &settings.Store{}
	if a.config.SettingsFile != "" {
		store, err = settings.LoadFile(a.config.SettingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		logger.Debug("Framework settings loaded.", "path", a.config.SettingsFile)
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	return a.engine.Load(ctx, doc, build.Options{
		Properties: a.config.Properties,
		Settings:   store,
		Framework:  a.config.Framework,
		BaseDir:    baseDir,
		Sink:       a.sink,
	})
}
