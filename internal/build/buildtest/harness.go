// Package buildtest runs build files in tests.
package buildtest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/build"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/testutil"
)

// Result holds the outcome of a harness run.
type Result struct {
	// Output is the build log, in emission order.
	Output *buildlog.Buffer
	// Logs holds the structured log records.
	Logs  *testutil.RecordHandler
	Build *build.Build
	Err   error
}

// Config adjusts a harness run.
type Config struct {
	Targets []string
	Options build.Options
	// Files are written next to the build file before it is loaded.
	Files map[string]string
}

// Run loads src with the given modules and runs it with the default
// config.
func Run(t *testing.T, src string, modules ...registry.Module) *Result {
	t.Helper()
	return RunWithConfig(t, src, Config{}, modules...)
}

// RunWithConfig loads src from a temporary directory and runs it. A panic
// during setup or the run is reported as Err.
func RunWithConfig(t *testing.T, src string, cfg Config, modules ...registry.Module) (res *Result) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range cfg.Files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	file := filepath.Join(dir, "test.anvil.hcl")
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	ctx, logs := testutil.RecordingContext(t)
	out := &buildlog.Buffer{}
	res = &Result{Output: out, Logs: logs}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("build panicked | %v", r)
		}
		if os.Getenv("ANVIL_TEST_LOGS") != "" {
			t.Logf("--- Build output for %s ---\n%v", t.Name(), out.Messages())
		}
	}()

	doc, err := markup.NewLoader().LoadFile(ctx, file)
	if err != nil {
		res.Err = err
		return res
	}

	opts := cfg.Options
	opts.Sink = out
	if opts.BaseDir == "" {
		opts.BaseDir = dir
	}
	b, err := build.New(registry.New(modules...)).Load(ctx, doc, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Build = b
	res.Err = b.Run(ctx, cfg.Targets...)
	return res
}

// Property returns a project property after the run.
func (r *Result) Property(t *testing.T, name string) string {
	t.Helper()
	require.NotNil(t, r.Build, "build was not loaded: %v", r.Err)
	v, ok := r.Build.Project.Properties.Get(name)
	require.True(t, ok, "property %q is not set", name)
	return v
}

// Messages returns the build output at or above min.
func (r *Result) Messages(min buildlog.Level) []string {
	var out []string
	for _, e := range r.Output.Events() {
		if e.Level >= min {
			out = append(out, e.Message)
		}
	}
	return out
}
