package fail_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/build/buildtest"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/modules/echo"
	"github.com/vk/anvil/modules/fail"
)

func TestFail(t *testing.T) {
	t.Parallel()

	t.Run("Failure: message becomes the task error", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		src := "project \"p\" {\n  default = \"t\"\n  target \"t\" {\n    fail { message = \"stop here\" }\n  }\n}\n"

		// --- Act ---
		res := buildtest.Run(t, src, &fail.Module{})

		// --- Assert ---
		require.Error(t, res.Err)
		var taskErr *diag.TaskError
		require.ErrorAs(t, res.Err, &taskErr)
		assert.EqualError(t, taskErr.Err, "stop here")
		assert.Equal(t, 4, taskErr.Location.Line)
	})

	t.Run("Failure: default message", func(t *testing.T) {
		t.Parallel()
		src := "project \"p\" {\n  default = \"t\"\n  target \"t\" {\n    fail {\n    }\n  }\n}\n"

		res := buildtest.Run(t, src, &fail.Module{})

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "No message.")
	})

	t.Run("Success: failonerror false logs and continues", func(t *testing.T) {
		t.Parallel()
		src := `
project "p" {
  default = "t"
  target "t" {
    fail {
      message     = "ignored"
      failonerror = false
    }
    echo { message = "next" }
  }
}
`
		res := buildtest.Run(t, src, &fail.Module{}, &echo.Module{})

		require.NoError(t, res.Err)
		assert.Equal(t, []string{"ignored"}, res.Messages(buildlog.Error))
		assert.Contains(t, res.Messages(buildlog.Info), "next")
	})
}
