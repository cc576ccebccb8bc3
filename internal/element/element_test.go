package element

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/markup"
)

type plain struct{ Base }

type capturing struct {
	Base
	buf buildlog.Buffer
}

func (c *capturing) LogSink() buildlog.Sink { return &c.buf }

type shared struct {
	DataTypeBase
	resets int
}

func (s *shared) Reset() { s.resets++ }

func TestBase_LogRouting(t *testing.T) {
	t.Parallel()
	var projectOut buildlog.Buffer
	project := NewProject("p", nil, &projectOut)

	t.Run("Success: project sink by default", func(t *testing.T) {
		t.Parallel()
		e := &plain{}
		e.Node = &markup.Node{Name: "echo"}
		Stamp(e, project, nil)

		e.Log(buildlog.Info, "hello %s", "there")

		events := projectOut.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "hello there", events[len(events)-1].Message)
		assert.Equal(t, "echo", events[len(events)-1].Element)
	})

	t.Run("Success: nearest capturing ancestor wins", func(t *testing.T) {
		t.Parallel()
		outer := &capturing{}
		middle := &plain{}
		Stamp(middle, project, outer)
		leaf := &plain{}
		Stamp(leaf, project, middle)

		leaf.Log(buildlog.Warning, "captured")

		assert.Equal(t, []string{"captured"}, outer.buf.Messages())
	})

	t.Run("Success: detached element discards", func(t *testing.T) {
		t.Parallel()
		e := &plain{}
		require.NotNil(t, e.Sink())
		assert.NotPanics(t, func() { e.Log(buildlog.Info, "dropped") })
	})
}

func TestChainAndKind(t *testing.T) {
	t.Parallel()
	a, b := &plain{}, &plain{}
	Stamp(b, nil, a)

	chain := Chain(b)
	require.Len(t, chain, 2)
	assert.Same(t, b, chain[0])
	assert.Same(t, a, chain[1])
	assert.Equal(t, KindElement, KindOf(a))
}

func TestProperties(t *testing.T) {
	t.Parallel()
	p := NewProperties()

	require.NoError(t, p.Set("a", "1"))
	require.NoError(t, p.SetReadOnly("b", "2"))
	err := p.Set("b", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	v, ok := p.Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.True(t, p.IsReadOnly("b"))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, p.Snapshot())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Set("c", "x")
			_, _ = p.Get("c")
		}()
	}
	wg.Wait()
}

func TestReferences(t *testing.T) {
	t.Parallel()
	r := NewReferences()
	first, second := &shared{}, &shared{}

	assert.False(t, r.Register("files", first))
	assert.True(t, r.Register("files", second))

	got, ok := r.Lookup("files")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"files"}, r.IDs())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	var dt DataType = second
	dt.Reset()
	assert.Equal(t, 1, second.resets)
	assert.False(t, dt.DataTypeFields().IsReference())
}

type defaulted struct {
	Base
	Enabled bool
}

func (d *defaulted) SetDefaults() { d.Enabled = true }

func TestConstruct(t *testing.T) {
	t.Parallel()
	e := Construct(reflect.TypeOf(&defaulted{}))
	require.IsType(t, &defaulted{}, e)
	assert.True(t, e.(*defaulted).Enabled)

	p := Construct(reflect.TypeOf(&plain{}))
	assert.IsType(t, &plain{}, p)
}
