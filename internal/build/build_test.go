package build_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/build"
	"github.com/vk/anvil/internal/build/buildtest"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/testutil"
	asynctask "github.com/vk/anvil/modules/async"
	"github.com/vk/anvil/modules/echo"
	"github.com/vk/anvil/modules/fail"
	"github.com/vk/anvil/modules/property"
	"github.com/vk/anvil/modules/sleep"
)

func modules() []registry.Module {
	return []registry.Module{&echo.Module{}, &property.Module{}, &fail.Module{}, &asynctask.Module{}, &sleep.Module{}}
}

func indexOf(t *testing.T, msgs []string, want string) int {
	t.Helper()
	for i, m := range msgs {
		if m == want {
			return i
		}
	}
	t.Fatalf("message %q not found in %q", want, msgs)
	return -1
}

func TestBuild_Run(t *testing.T) {
	t.Parallel()

	t.Run("Success: top-level tasks run before the default target", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		src := `
project "demo" {
  default = "build"

  property {
    name  = "greeting"
    value = "hello"
  }

  target "build" {
    echo { message = "${greeting} from ${project.name}" }
  }

  target "other" {
    echo { message = "not run" }
  }
}
`
		// --- Act ---
		res := buildtest.Run(t, src, modules()...)

		// --- Assert ---
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"build:", "hello from demo"}, res.Messages(buildlog.Info))
	})

	t.Run("Success: requested targets run in order", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  target "a" {
    echo { message = "in a" }
  }
  target "b" {
    echo { message = "in b" }
  }
}
`
		res := buildtest.RunWithConfig(t, src, buildtest.Config{Targets: []string{"b", "a"}}, modules()...)

		require.NoError(t, res.Err)
		assert.Equal(t, []string{"b:", "in b", "a:", "in a"}, res.Messages(buildlog.Info))
	})

	t.Run("Success: properties set by a task are visible to later tasks", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    property {
      name  = "out"
      value = "bin"
    }
    echo { message = "writing to ${out}" }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.NoError(t, res.Err)
		assert.Contains(t, res.Output.Messages(), "writing to bin")
		assert.Equal(t, "bin", res.Property(t, "out"))
	})

	t.Run("Success: command line properties cannot be overwritten", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    property {
      name  = "mode"
      value = "debug"
    }
  }
}
`
		cfg := buildtest.Config{Options: build.Options{Properties: map[string]string{"mode": "release"}}}
		res := buildtest.RunWithConfig(t, src, cfg, modules()...)

		require.NoError(t, res.Err)
		assert.Equal(t, "release", res.Property(t, "mode"))
	})

	t.Run("Success: skipped target", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    if = false
    fail { message = "should not run" }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.NoError(t, res.Err)
		assert.Empty(t, res.Output.Messages())
	})

	t.Run("Failure: unknown target", func(t *testing.T) {
		t.Parallel()
		src := "project \"demo\" {\n  target \"a\" {\n  }\n}\n"
		res := buildtest.RunWithConfig(t, src, buildtest.Config{Targets: []string{"missing"}}, modules()...)

		require.Error(t, res.Err)
		assert.True(t, errors.Is(res.Err, diag.ErrConfiguration))
		assert.Contains(t, res.Err.Error(), "Target 'missing' does not exist in this project.")
	})

	t.Run("Failure: no default target", func(t *testing.T) {
		t.Parallel()
		src := "project \"demo\" {\n  target \"a\" {\n  }\n}\n"
		res := buildtest.Run(t, src, modules()...)

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "No target specified and no default target found.")
	})

	t.Run("Failure: failing task stops the target", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    fail { message = "boom" }
    echo { message = "after" }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.Error(t, res.Err)
		var taskErr *diag.TaskError
		require.ErrorAs(t, res.Err, &taskErr)
		assert.Equal(t, "fail", taskErr.Task)
		assert.NotContains(t, res.Output.Messages(), "after")
	})

	t.Run("Failure: unknown element is reported when reached", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    echo { message = "first" }
    bogus {
    }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "Invalid element <bogus>. Unknown task or datatype.")
		assert.Contains(t, res.Output.Messages(), "first")
	})
}

func TestBuild_Async(t *testing.T) {
	t.Parallel()

	t.Run("Success: unit output is replayed at the join", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    async "compile" {
      echo { message = "compiling" }
    }
    join { task = "compile" }
    echo { message = "done" }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.NoError(t, res.Err)
		msgs := res.Output.Messages()
		fork := indexOf(t, msgs, `Forking asynchronous task "compile".`)
		join := indexOf(t, msgs, `Joining asynchronous task "compile".`)
		body := indexOf(t, msgs, "compiling")
		done := indexOf(t, msgs, "done")
		assert.Less(t, fork, join)
		assert.Less(t, join, body)
		assert.Less(t, body, done)
	})

	t.Run("Success: unjoined units are joined when the build ends", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    async "left" {
      echo { message = "late output" }
    }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.NoError(t, res.Err)
		assert.Contains(t, res.Output.Messages(), "1 asynchronous task(s) were never joined; joining them now.")
		assert.Contains(t, res.Output.Messages(), "late output")
		assert.Contains(t, res.Logs.Messages(slog.LevelWarn), "Asynchronous tasks were not joined.")
	})

	t.Run("Failure: every unjoined unit is waited on after a failure", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		src := `
project "demo" {
  default = "build"
  target "build" {
    async "a" {
      fail { message = "first unit failed" }
    }
    async "b" {
      sleep { milliseconds = 100 }
      echo { message = "b done" }
      property {
        name  = "late"
        value = "yes"
      }
    }
    async "c" {
      fail { message = "third unit failed" }
    }
  }
}
`
		// --- Act ---
		res := buildtest.Run(t, src, modules()...)

		// --- Assert ---
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "first unit failed")
		assert.Contains(t, res.Err.Error(), "third unit failed")
		assert.Contains(t, res.Output.Messages(), "b done")
		assert.Equal(t, "yes", res.Property(t, "late"))
		msgs := res.Output.Messages()
		assert.Less(t, indexOf(t, msgs, `Joining asynchronous task "a".`), indexOf(t, msgs, `Joining asynchronous task "b".`))
		assert.Less(t, indexOf(t, msgs, `Joining asynchronous task "b".`), indexOf(t, msgs, `Joining asynchronous task "c".`))
	})

	t.Run("Failure: unit failure surfaces at the join", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    async "broken" {
      fail { message = "compile error" }
    }
    echo { message = "still running" }
    join { all = true }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "compile error")
		assert.Contains(t, res.Output.Messages(), "still running")
	})

	t.Run("Failure: duplicate async name", func(t *testing.T) {
		t.Parallel()
		src := `
project "demo" {
  default = "build"
  target "build" {
    async "a" {
      echo { message = "one" }
    }
    async "a" {
      echo { message = "two" }
    }
  }
}
`
		res := buildtest.Run(t, src, modules()...)

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "An async task has already been started with the name a")
	})
}

func TestEngine_Load(t *testing.T) {
	t.Parallel()

	load := func(t *testing.T, src string) (*build.Build, error) {
		t.Helper()
		ctx := testutil.Context(t)
		doc, err := markup.NewLoader().Parse(ctx, []byte(src), "load.anvil.hcl")
		require.NoError(t, err)
		return build.New(registry.New(modules()...)).Load(ctx, doc, build.Options{BaseDir: "/work"})
	}

	t.Run("Success: project attributes and builtin properties", func(t *testing.T) {
		t.Parallel()
		b, err := load(t, "project \"demo\" {\n  basedir = \"src\"\n  target \"a\" {\n  }\n}\n")

		require.NoError(t, err)
		assert.Equal(t, "demo", b.Project.Name)
		assert.Equal(t, "/work/src", b.Project.BaseDir)
		name, _ := b.Project.Properties.Get("project.name")
		assert.Equal(t, "demo", name)
		require.Len(t, b.Root.Targets, 1)
		assert.Equal(t, "a", b.Root.Targets[0].Name)
	})

	t.Run("Failure: missing project", func(t *testing.T) {
		t.Parallel()
		_, err := load(t, "echo { message = \"x\" }\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Build file has no <project> element.")
	})

	t.Run("Failure: stray top-level element", func(t *testing.T) {
		t.Parallel()
		_, err := load(t, "project \"p\" {\n}\necho { message = \"x\" }\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid element <echo>.")
	})

	t.Run("Failure: duplicate target", func(t *testing.T) {
		t.Parallel()
		_, err := load(t, "project \"p\" {\n  target \"a\" {\n  }\n  target \"a\" {\n  }\n}\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Duplicate target named 'a'!")
	})
}

func TestBuild_Check(t *testing.T) {
	t.Parallel()
	src := `
project "demo" {
  target "a" {
    echo { message = "ok" }
    async "x" {
      nested_bogus {
      }
    }
  }
  target "b" {
    bogus {
    }
  }
}
`
	ctx := testutil.Context(t)
	doc, err := markup.NewLoader().Parse(ctx, []byte(src), "check.anvil.hcl")
	require.NoError(t, err)
	b, err := build.New(registry.New(modules()...)).Load(ctx, doc, build.Options{})
	require.NoError(t, err)

	err = b.Check(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid element <nested_bogus>.")
	assert.Contains(t, err.Error(), "Invalid element <bogus>.")
	assert.NotContains(t, err.Error(), "<echo>")
}
