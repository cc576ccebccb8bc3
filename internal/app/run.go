package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/ctxlog"
)

// Run loads the build file and runs the configured targets.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	start := time.Now()

	b, err := a.Load(ctx)
	if err != nil {
		return err
	}
	a.sink.Emit(buildlog.Event{Level: buildlog.Info, Message: fmt.Sprintf("Project: %s", b.Project.Name)})

	if err := b.Run(ctx, a.config.Targets...); err != nil {
		a.sink.Emit(buildlog.Event{Level: buildlog.Error, Message: "BUILD FAILED"})
		return err
	}

	a.sink.Emit(buildlog.Event{Level: buildlog.Info, Message: "BUILD SUCCEEDED"})
	a.sink.Emit(buildlog.Event{Level: buildlog.Info, Message: fmt.Sprintf("Total time: %.1f seconds.", time.Since(start).Seconds())})
	a.logger.Debug("App.Run method finished.")
	return nil
}

// Validate loads the build file and checks every deferred element without
// running anything. When dump is not nil the bound project is written to it.
func (a *App) Validate(ctx context.Context, dump io.Writer) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	b, err := a.Load(ctx)
	if err != nil {
		return err
	}
	if err := b.Check(ctx); err != nil {
		return err
	}

	if dump != nil {
		cfg := spew.ConfigState{
			Indent:                  "  ",
			MaxDepth:                4,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		cfg.Fdump(dump, b.Root)
	}
	fmt.Fprintf(a.outW, "%s is valid.\n", b.Project.Name)
	return nil
}
