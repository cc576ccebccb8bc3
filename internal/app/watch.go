package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/fsutil"
)

// watchSettle is how long a burst of file events must be quiet before the
// build runs again.
const watchSettle = 200 * time.Millisecond

// Watch runs the build, then runs it again whenever the build file changes,
// until ctx is done. Build failures are reported through report and do not
// stop the watch.
func (a *App) Watch(ctx context.Context, report func(error)) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	path, err := fsutil.FindBuildFile(a.config.BuildFile)
	if err != nil {
		return err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace files, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	a.logger.Info("Watching build file.", "path", path)

	runOnce := func() {
		if err := a.Run(ctx); err != nil {
			report(err)
		}
	}
	runOnce()

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			a.logger.Debug("Build file changed.", "op", ev.Op.String())
			settle = time.After(watchSettle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("File watcher error.", "error", err)
		case <-settle:
			settle = nil
			runOnce()
		}
	}
}
