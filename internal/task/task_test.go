package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/async"
	"github.com/vk/anvil/internal/binder"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
	"github.com/vk/anvil/internal/testutil"
)

type setTask struct {
	task.Base
	Name  string `anvil:"name,attr,required"`
	Value string `anvil:"value,attr"`
}

func (s *setTask) Execute(_ context.Context, _ *task.Runtime) error {
	s.Log(buildlog.Info, "%s=%s", s.Name, s.Value)
	return s.Project.Properties.Set(s.Name, s.Value)
}

type boomTask struct {
	task.Base
}

func (b *boomTask) Execute(context.Context, *task.Runtime) error {
	return errors.New("boom")
}

type group struct {
	task.Container
}

func (g *group) Execute(ctx context.Context, rt *task.Runtime) error {
	return g.ExecuteChildren(ctx, rt, g)
}

type tag struct {
	element.DataTypeBase
	Value string `anvil:"value,attr"`
}

type notTask struct {
	element.Base
}

func setup(t *testing.T, src string) (*task.Runtime, *element.Project, *markup.Node, *buildlog.Buffer) {
	t.Helper()
	doc, err := markup.NewLoader().Parse(testutil.Context(t), []byte(src), "task.hcl")
	require.NoError(t, err)

	reg := registry.New()
	reg.RegisterTask("set", func() element.Element { return &setTask{} })
	reg.RegisterTask("boom", func() element.Element { return &boomTask{} })
	reg.RegisterTask("group", func() element.Element { return &group{} })
	reg.RegisterTask("plain", func() element.Element { return &notTask{} })
	reg.RegisterDataType("tag", func() element.Element { return &tag{} })

	out := &buildlog.Buffer{}
	project := element.NewProject("t", doc.Locations, out)
	rt := &task.Runtime{Binder: binder.New(reg, nil), Async: async.NewEngine(), RunID: "test"}
	return rt, project, doc.Root, out
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("Success: children are bound lazily", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		rt, project, root, out := setup(t, `
group {
  set {
    name  = "a"
    value = "1"
  }
  set {
    name  = "b"
    value = "${a}2"
  }
}
`)
		// --- Act ---
		err := task.Run(testutil.Context(t), rt, root.Children[0], project, nil)

		// --- Assert ---
		require.NoError(t, err)
		v, _ := project.Properties.Get("b")
		assert.Equal(t, "12", v)
		assert.Equal(t, []string{"a=1", "b=12"}, out.Messages())
	})

	t.Run("Success: if and unless skip", func(t *testing.T) {
		t.Parallel()
		rt, project, root, _ := setup(t, `
set {
  name  = "x"
  value = "1"
  if    = false
}
set {
  name   = "y"
  value  = "1"
  unless = true
}
`)
		for _, n := range root.Children {
			require.NoError(t, task.Run(testutil.Context(t), rt, n, project, nil))
		}
		assert.Empty(t, project.Properties.Snapshot())
	})

	t.Run("Success: failonerror false logs instead", func(t *testing.T) {
		t.Parallel()
		rt, project, root, out := setup(t, "boom {\n  failonerror = false\n}\n")
		require.NoError(t, task.Run(testutil.Context(t), rt, root.Children[0], project, nil))
		require.Len(t, out.Events(), 1)
		assert.Equal(t, buildlog.Error, out.Events()[0].Level)
		assert.Equal(t, "boom", out.Events()[0].Message)
	})

	t.Run("Success: datatypes are declared by id", func(t *testing.T) {
		t.Parallel()
		rt, project, root, _ := setup(t, `
group {
  tag {
    id    = "t1"
    value = "first"
  }
  tag {
    id    = "t1"
    value = "second"
  }
  tag {
    value = "anonymous"
  }
}
`)
		require.NoError(t, task.Run(testutil.Context(t), rt, root.Children[0], project, nil))
		dt, ok := project.References.Lookup("t1")
		require.True(t, ok)
		assert.Equal(t, "second", dt.(*tag).Value)
		assert.Equal(t, []string{"t1"}, project.References.IDs())
	})

	t.Run("Failure: task error is wrapped with location", func(t *testing.T) {
		t.Parallel()
		rt, project, root, _ := setup(t, "boom {\n}\n")
		err := task.Run(testutil.Context(t), rt, root.Children[0], project, nil)

		require.Error(t, err)
		var taskErr *diag.TaskError
		require.True(t, errors.As(err, &taskErr))
		assert.Equal(t, "boom", taskErr.Task)
		assert.Equal(t, "task.hcl(1,1): task <boom> failed: boom", err.Error())
	})

	t.Run("Failure: nested failure stops the container", func(t *testing.T) {
		t.Parallel()
		rt, project, root, _ := setup(t, `
group {
  boom {
  }
  set {
    name = "never"
  }
}
`)
		err := task.Run(testutil.Context(t), rt, root.Children[0], project, nil)
		require.Error(t, err)
		_, ok := project.Properties.Get("never")
		assert.False(t, ok)
	})

	t.Run("Failure: configuration error in a later child", func(t *testing.T) {
		t.Parallel()
		rt, project, root, _ := setup(t, "group {\n  set {\n  }\n}\n")
		err := task.Run(testutil.Context(t), rt, root.Children[0], project, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, diag.ErrConfiguration))
	})

	t.Run("Failure: element that is not a task", func(t *testing.T) {
		t.Parallel()
		rt, project, root, _ := setup(t, "plain {\n}\n")
		err := task.Run(testutil.Context(t), rt, root.Children[0], project, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "<plain> is not a task")
	})
}
