package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSettings = `
frameworks:
  go1.22:
    properties:
      goroot: /usr/lib/go-1.22
settings:
  - path: ["task:compile"]
    attributes:
      tool: go
  - framework: go1.22
    path: ["task:compile"]
    attributes:
      tool: "${goroot}/bin/go"
  - path: ["task:compile", "element:options"]
    attributes:
      flags: "-trimpath"
`

const tomlSettings = `
[frameworks."go1.22".properties]
goroot = "/usr/lib/go-1.22"

[[settings]]
path = ["task:compile"]
[settings.attributes]
tool = "go"

[[settings]]
framework = "go1.22"
path = ["task:compile"]
[settings.attributes]
tool = "${goroot}/bin/go"

[[settings]]
path = ["task:compile", "element:options"]
[settings.attributes]
flags = "-trimpath"
`

func TestStore_Lookup(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name   string
		data   string
		format Format
	}{
		{name: "yaml", data: yamlSettings, format: YAML},
		{name: "toml", data: tomlSettings, format: TOML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store, err := Parse([]byte(tc.data), tc.format)
			require.NoError(t, err)

			compile := []Scope{{Kind: TaskScope, Name: "compile"}}

			v, ok := store.Lookup("go1.22", compile, "tool")
			require.True(t, ok)
			assert.Equal(t, "${goroot}/bin/go", v, "framework-specific value wins")

			v, ok = store.Lookup("", compile, "tool")
			require.True(t, ok)
			assert.Equal(t, "go", v, "neutral value without a framework")

			v, ok = store.Lookup("other", compile, "tool")
			require.True(t, ok)
			assert.Equal(t, "go", v, "neutral fallback for an unconfigured framework")

			options := []Scope{{Kind: ElementScope, Name: "options"}, {Kind: TaskScope, Name: "compile"}}
			v, ok = store.Lookup("go1.22", options, "flags")
			require.True(t, ok)
			assert.Equal(t, "-trimpath", v)

			_, ok = store.Lookup("", []Scope{{Kind: ElementScope, Name: "options"}, {Kind: TaskScope, Name: "link"}}, "flags")
			assert.False(t, ok, "chain must match the whole path suffix")

			fw, ok := store.Framework("go1.22")
			require.True(t, ok)
			assert.Equal(t, "/usr/lib/go-1.22", fw.Properties["goroot"])
		})
	}
}

func TestStore_SuffixMatch(t *testing.T) {
	t.Parallel()
	store := New(nil, []Setting{{
		Path:      []Scope{{Kind: TaskScope, Name: "outer"}, {Kind: TaskScope, Name: "compile"}},
		Attribute: "tool",
		Value:     "nested",
	}})

	_, ok := store.Lookup("", []Scope{{Kind: TaskScope, Name: "compile"}}, "tool")
	assert.True(t, ok)

	_, ok = store.Lookup("", []Scope{{Kind: TaskScope, Name: "compile"}, {Kind: TaskScope, Name: "other"}}, "tool")
	assert.False(t, ok)

	var empty *Store
	_, ok = empty.Lookup("", nil, "tool")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		data    string
		format  Format
		wantErr string
	}{
		{name: "bad scope", data: "settings:\n  - path: [\"compile\"]\n", format: YAML, wantErr: "expected kind:name"},
		{name: "bad kind", data: "settings:\n  - path: [\"target:x\"]\n", format: YAML, wantErr: "task or element"},
		{name: "unknown framework", data: "settings:\n  - framework: nope\n", format: YAML, wantErr: "unknown framework"},
		{name: "unknown yaml key", data: "bogus: 1\n", format: YAML, wantErr: "bogus"},
		{name: "unknown toml key", data: "bogus = 1\n", format: TOML, wantErr: "bogus"},
		{name: "unknown format", data: "", format: Format("ini"), wantErr: "unsupported"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.data), tc.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlSettings), 0o644))
	store, err := LoadFile(yamlPath)
	require.NoError(t, err)
	_, ok := store.Framework("go1.22")
	assert.True(t, ok)

	_, err = LoadFile(filepath.Join(dir, "settings.ini"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported settings file")

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestParseScope(t *testing.T) {
	t.Parallel()
	sc, err := ParseScope("element:options")
	require.NoError(t, err)
	assert.Equal(t, Scope{Kind: ElementScope, Name: "options"}, sc)
	assert.Equal(t, "element:options", sc.String())
}
