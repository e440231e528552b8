package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, hit, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	v, hit, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, hit, _ = m.Get(ctx, "k")
	require.False(t, hit)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, hit, _ := m.Get(ctx, "k")
	require.False(t, hit)
}

func TestMemoryIncr(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	for want := int64(1); want <= 3; want++ {
		n, err := m.Incr(ctx, "counter", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
}
