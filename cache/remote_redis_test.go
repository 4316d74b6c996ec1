package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRemote(t *testing.T, namespace string) (*miniredis.Miniredis, *RedisRemote[string]) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	remote := NewRedisRemote[string](RedisRemoteConfig{
		Addr: mr.Addr(),
		TTL:  time.Hour,
	}, namespace, zap.NewNop())
	t.Cleanup(func() { remote.Close() })

	return mr, remote
}

func TestRedisRemote_SetAndGet(t *testing.T) {
	_, remote := setupTestRemote(t, "ns")
	ctx := context.Background()

	remote.Set(ctx, "k", newEntry("k", "v", time.Hour, time.Now()))

	got, ok := remote.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got.Value)
	assert.Equal(t, "k", got.Metadata.Key)
}

func TestRedisRemote_GetAbsent(t *testing.T) {
	_, remote := setupTestRemote(t, "ns")

	_, ok := remote.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestRedisRemote_NamespacePrefix(t *testing.T) {
	mr, remote := setupTestRemote(t, "agents")
	ctx := context.Background()

	remote.Set(ctx, "k", newEntry("k", "v", time.Hour, time.Now()))

	assert.True(t, mr.Exists("agents:k"), "keys carry the namespace prefix")
}

func TestRedisRemote_TTLApplied(t *testing.T) {
	mr, remote := setupTestRemote(t, "ns")
	ctx := context.Background()

	remote.Set(ctx, "k", newEntry("k", "v", time.Hour, time.Now()))

	mr.FastForward(2 * time.Hour)

	_, ok := remote.Get(ctx, "k")
	assert.False(t, ok, "entry expired on the backend")
}

func TestRedisRemote_Remove(t *testing.T) {
	_, remote := setupTestRemote(t, "ns")
	ctx := context.Background()

	remote.Set(ctx, "k", newEntry("k", "v", time.Hour, time.Now()))
	remote.Remove(ctx, "k")
	// Removing an absent key is a no-op.
	remote.Remove(ctx, "nope")

	_, ok := remote.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisRemote_ClearIsNamespaced(t *testing.T) {
	mr, remote := setupTestRemote(t, "ns")
	ctx := context.Background()

	remote.Set(ctx, "k1", newEntry("k1", "v1", time.Hour, time.Now()))
	remote.Set(ctx, "k2", newEntry("k2", "v2", time.Hour, time.Now()))
	require.NoError(t, mr.Set("other:k", "untouched"))

	remote.Clear(ctx)

	_, ok := remote.Get(ctx, "k1")
	assert.False(t, ok)
	_, ok = remote.Get(ctx, "k2")
	assert.False(t, ok)
	assert.True(t, mr.Exists("other:k"), "clear only touches this namespace")
}

func TestRedisRemote_UnavailableBackend(t *testing.T) {
	mr, remote := setupTestRemote(t, "ns")
	ctx := context.Background()

	remote.Set(ctx, "k", newEntry("k", "v", time.Hour, time.Now()))
	mr.Close()

	// Every operation degrades to absence or a no-op, never an error.
	assert.False(t, remote.Available(ctx))
	_, ok := remote.Get(ctx, "k")
	assert.False(t, ok)
	remote.Set(ctx, "k2", newEntry("k2", "v2", time.Hour, time.Now()))
	remote.Remove(ctx, "k")
	remote.Clear(ctx)
}

func TestNoopRemote(t *testing.T) {
	remote := NewNoopRemote[string]()
	ctx := context.Background()

	assert.False(t, remote.Available(ctx))
	remote.Set(ctx, "k", newEntry("k", "v", time.Hour, time.Now()))
	_, ok := remote.Get(ctx, "k")
	assert.False(t, ok, "the stub holds nothing")
	remote.Remove(ctx, "k")
	remote.Clear(ctx)
}

// A facade with a cold L1/L2 but a warm remote tier serves the value
// from L3 and promotes it into both faster tiers.
func TestTieredCache_RemotePromotion(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	ctx := context.Background()

	newFacade := func(dir string) *TieredCache[string] {
		remote := NewRedisRemote[string](RedisRemoteConfig{
			Addr: mr.Addr(),
			TTL:  time.Hour,
		}, "ns", zap.NewNop())
		c := New[string](Config{
			Namespace: "ns",
			Dir:       dir,
		}, remote, zap.NewNop())
		require.NoError(t, c.Initialize(ctx))
		return c
	}

	writer := newFacade(t.TempDir())
	writer.Set(ctx, "k", "v")
	writer.Destroy()

	// Fresh directory: nothing in L1 or L2, only the backend is warm.
	reader := newFacade(t.TempDir())
	defer reader.Destroy()

	got, err := reader.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	stats := reader.Stats()
	assert.Equal(t, uint64(1), stats.L3Hits)
	assert.Equal(t, uint64(1), stats.Promotions)

	// The promotion landed in both faster tiers.
	assert.Equal(t, 1, reader.l1.Len())
	assert.Equal(t, 1, reader.l2.Len())
}

func TestTieredCache_RefreshPullsFromRemote(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	ctx := context.Background()

	remote := NewRedisRemote[string](RedisRemoteConfig{
		Addr: mr.Addr(),
		TTL:  time.Hour,
	}, "ns", zap.NewNop())

	dir := t.TempDir()
	c := New[string](Config{Namespace: "ns", Dir: dir}, remote, zap.NewNop())
	require.NoError(t, c.Initialize(ctx))
	defer c.Destroy()

	c.Set(ctx, "k", "stale")

	// The backend has moved on.
	remote.Set(ctx, "k", newEntry("k", "fresh", time.Hour, time.Now()))

	require.NoError(t, c.Refresh(ctx))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}
