package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	c := NewMemory("test", time.Minute)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k1", "v1", time.Minute))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "v1", got)
}

func TestMemoryGetMissing(t *testing.T) {
	c := NewMemory("test", time.Minute)
	defer c.Close()

	_, err := c.Get(context.Background(), "nope")
	require.True(t, IsNotFound(err))
}

func TestMemoryDelete(t *testing.T) {
	c := NewMemory("test", time.Minute)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k1", "v1", time.Minute))
	require.NoError(t, c.Delete(ctx, "k1"))

	_, err := c.Get(ctx, "k1")
	require.True(t, IsNotFound(err))
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory("test", time.Minute)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k1", "v1", 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k1")
	require.True(t, IsNotFound(err))
}

func TestMemoryInstancesIndependent(t *testing.T) {
	a := NewMemory("a", time.Minute)
	b := NewMemory("b", time.Minute)
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, "k", "from-a", time.Minute))

	_, err := b.Get(ctx, "k")
	require.True(t, IsNotFound(err))
}
