package di

import (
	"context"
	"errors"
	"testing"

	"github.com/LeJamon/goAMM/internal/config"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func TestContainerBuildsOnce(t *testing.T) {
	c := New()
	builds := 0
	c.RegisterBuilder("n", func(*Container) (interface{}, error) {
		builds++
		return builds, nil
	})

	for i := 0; i < 3; i++ {
		v, err := Resolve[int](c, "n")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	}
	assert.True(t, c.Has("n"))
	assert.False(t, c.Has("missing"))

	_, err := c.Get("missing")
	assert.Error(t, err)
	_, err = Resolve[string](c, "n")
	assert.Error(t, err)
}

func TestContainerCloseOrder(t *testing.T) {
	c := New()
	var order []string
	c.OnClose(closeFunc(func() error { order = append(order, "first"); return nil }))
	c.OnClose(closeFunc(func() error { order = append(order, "second"); return errors.New("boom") }))

	err := c.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, c.Close())
}

func TestProviderEngine(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Storage.Backend = "memory"

	c := New()
	p := NewProvider(c, cfg)
	require.NoError(t, p.RegisterAll())
	defer c.Close()

	engine, err := p.Engine()
	require.NoError(t, err)
	again, err := p.Engine()
	require.NoError(t, err)
	assert.Same(t, engine, again)

	heights, err := p.Heights()
	require.NoError(t, err)
	assert.Equal(t, cfg.Chain.StartHeight, heights.Height())

	owner := asset.Account(1)
	init := token.InitCall("Test", "TST", 1_000, false)
	id, res := engine.Deploy(context.Background(), owner, token.Kind, &init, nil)
	require.NoError(t, res.Err)

	kind, err := engine.KindOf(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, token.Kind, kind)

	reg, err := p.Registry()
	require.NoError(t, err)
	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ammd_calls_total")
}
