package http_client_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/build/buildtest"
	"github.com/vk/anvil/modules/http_client"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1.2.3"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wrap(body string) string {
	return "project \"p\" {\n  default = \"t\"\n  target \"t\" {\n" + body + "  }\n}\n"
}

func TestGet(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	t.Run("Success: body stored in a property", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		src := wrap(`
    get {
      src      = "` + srv.URL + `/version"
      property = "version"
      timeout  = "5s"
    }
`)
		// --- Act ---
		res := buildtest.Run(t, src, &http_client.Module{})

		// --- Assert ---
		require.NoError(t, res.Err)
		assert.Equal(t, "1.2.3", res.Property(t, "version"))
	})

	t.Run("Success: body written to a file under the base directory", func(t *testing.T) {
		t.Parallel()
		src := wrap(`
    get {
      src  = "` + srv.URL + `/version"
      dest = "VERSION"
    }
`)
		res := buildtest.Run(t, src, &http_client.Module{})

		require.NoError(t, res.Err)
		data, err := os.ReadFile(filepath.Join(res.Build.Project.BaseDir, "VERSION"))
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", string(data))
	})

	t.Run("Failure: error status", func(t *testing.T) {
		t.Parallel()
		src := wrap(`
    get {
      src      = "` + srv.URL + `/missing"
      property = "x"
    }
`)
		res := buildtest.Run(t, src, &http_client.Module{})

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "404")
	})

	t.Run("Failure: no destination", func(t *testing.T) {
		t.Parallel()
		res := buildtest.Run(t, wrap("    get { src = \""+srv.URL+"/version\" }\n"), &http_client.Module{})

		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "either dest or property must be set")
	})
}
