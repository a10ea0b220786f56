package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewStaticRegistry("node", "10.0.0.1:9000", "10.0.0.2:9000")

	instances, err := reg.Discover(ctx, "node")
	require.NoError(t, err)
	assert.Equal(t, []ServiceInstance{
		{Addr: "10.0.0.1:9000", Weight: 1},
		{Addr: "10.0.0.2:9000", Weight: 1},
	}, instances)

	require.NoError(t, reg.Register(ctx, "node", ServiceInstance{Addr: "10.0.0.1:9000", Weight: 5}, 10))
	require.NoError(t, reg.Deregister(ctx, "node", "10.0.0.2:9000"))

	instances, err = reg.Discover(ctx, "node")
	require.NoError(t, err)
	assert.Equal(t, []ServiceInstance{{Addr: "10.0.0.1:9000", Weight: 5}}, instances)

	empty, err := reg.Discover(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStaticRegistryDiscoverReturnsCopy(t *testing.T) {
	reg := NewStaticRegistry("node", "a:1")
	got, _ := reg.Discover(context.Background(), "node")
	got[0].Addr = "mutated"

	again, _ := reg.Discover(context.Background(), "node")
	assert.Equal(t, "a:1", again[0].Addr)
}
