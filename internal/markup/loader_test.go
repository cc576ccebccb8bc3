package markup_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/testutil"
)

func TestLoader_Parse(t *testing.T) {
	t.Parallel()

	t.Run("Success: blocks become nodes in document order", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		src := `
project "demo" {
  default = "build"
  verbose = true

  target "build" {
    echo {
      message = "hello ${name}!"
    }
    sleep {
      milliseconds = 10
    }
  }
}
`
		// --- Act ---
		doc, err := markup.NewLoader().Parse(testutil.Context(t), []byte(src), "demo.anvil.hcl")

		// --- Assert ---
		require.NoError(t, err)
		require.Len(t, doc.Root.Children, 1)
		project := doc.Root.Children[0]
		assert.Equal(t, "project", project.Name)
		assert.Equal(t, []string{"demo"}, project.Labels)

		gotAttrs := map[string]string{}
		var order []string
		for _, a := range project.Attrs {
			gotAttrs[a.Name] = a.Value
			order = append(order, a.Name)
		}
		assert.Equal(t, []string{"default", "verbose"}, order)
		if diff := cmp.Diff(map[string]string{"default": "build", "verbose": "true"}, gotAttrs); diff != "" {
			t.Errorf("attributes mismatch (-want +got):\n%s", diff)
		}

		target := project.Children[0]
		require.Len(t, target.Children, 2)
		msg, ok := target.Children[0].Attr("message")
		require.True(t, ok)
		assert.Equal(t, "hello ${name}!", msg.Value)
		ms, ok := target.Children[1].Attr("milliseconds")
		require.True(t, ok)
		assert.Equal(t, "10", ms.Value)
	})

	t.Run("Success: single interpolation and escaped literal", func(t *testing.T) {
		t.Parallel()
		src := `
echo {
  message = "${upper(name)}"
  literal = "cost: $${price}"
}
`
		doc, err := markup.NewLoader().Parse(testutil.Context(t), []byte(src), "t.hcl")
		require.NoError(t, err)

		echo := doc.Root.Children[0]
		msg, _ := echo.Attr("message")
		assert.Equal(t, "${upper(name)}", msg.Value)
		lit, _ := echo.Attr("literal")
		assert.Equal(t, "cost: $${price}", lit.Value)
		assert.Equal(t, "cost: ${price}", markup.Unescape(lit.Value))
	})

	t.Run("Failure: variable reference outside a template", func(t *testing.T) {
		t.Parallel()
		src := "echo {\n  message = some.variable\n}\n"
		_, err := markup.NewLoader().Parse(testutil.Context(t), []byte(src), "t.hcl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "literal values or string templates")
	})

	t.Run("Failure: syntax error", func(t *testing.T) {
		t.Parallel()
		_, err := markup.NewLoader().Parse(testutil.Context(t), []byte("echo {"), "broken.hcl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.hcl")
	})
}

func TestLoader_Locations(t *testing.T) {
	t.Parallel()
	src := "project \"p\" {\n  target \"a\" {\n  }\n}\n"

	doc, err := markup.NewLoader().Parse(testutil.Context(t), []byte(src), "loc.hcl")
	require.NoError(t, err)

	target := doc.Root.Children[0].Children[0]
	loc, err := doc.Locations.Lookup(target)
	require.NoError(t, err)
	assert.Equal(t, markup.Location{File: "loc.hcl", Line: 2, Column: 3}, loc)
	assert.Equal(t, "loc.hcl(2,3)", loc.String())

	_, err = doc.Locations.Lookup(&markup.Node{Name: "stray"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<stray>")
}

func TestFindUnique(t *testing.T) {
	t.Parallel()
	a := &markup.Node{Name: "a"}
	b1 := &markup.Node{Name: "b"}
	b2 := &markup.Node{Name: "b"}

	t.Run("Success: single match", func(t *testing.T) {
		t.Parallel()
		found, diags := markup.FindUnique([]*markup.Node{a, b1}, "a")
		assert.Same(t, a, found)
		assert.False(t, diags.HasErrors())
	})

	t.Run("Success: no match", func(t *testing.T) {
		t.Parallel()
		found, diags := markup.FindUnique([]*markup.Node{a}, "c")
		assert.Nil(t, found)
		assert.Empty(t, diags)
	})

	t.Run("Failure: duplicate", func(t *testing.T) {
		t.Parallel()
		_, diags := markup.FindUnique([]*markup.Node{a, b1, b2}, "b")
		require.True(t, diags.HasErrors())
		assert.Equal(t, `Duplicate "b" element`, diags[0].Summary)
	})
}

func TestNode_ChildrenNamed(t *testing.T) {
	t.Parallel()
	x1, x2, y := &markup.Node{Name: "x"}, &markup.Node{Name: "x"}, &markup.Node{Name: "y"}
	n := &markup.Node{Children: []*markup.Node{x1, y, x2}}

	got := n.ChildrenNamed("x")
	require.Len(t, got, 2)
	assert.Same(t, x1, got[0])
	assert.Same(t, x2, got[1])
	assert.Empty(t, n.ChildrenNamed("z"))
}
