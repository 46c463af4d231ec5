package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))

	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit, "NullCache should not store data")
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "key"))
}

func TestFileCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	_, hit, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "npm:left-pad", []byte(`{"name":"left-pad"}`), time.Hour))
	data, hit, err := c.Get(ctx, "npm:left-pad")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.JSONEq(t, `{"name":"left-pad"}`, string(data))

	require.NoError(t, c.Delete(ctx, "npm:left-pad"))
	_, hit, _ = c.Get(ctx, "npm:left-pad")
	assert.False(t, hit)
	assert.NoError(t, c.Delete(ctx, "npm:left-pad"), "deleting a missing key is fine")
}

func TestFileCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	_, statErr := os.Stat(c.path("key"))
	assert.True(t, os.IsNotExist(statErr), "expired entry should be removed")
}

func TestFileCache_NoTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))
	_, hit, _ := c.Get(ctx, "key")
	assert.True(t, hit)
}

func TestFileCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("key")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFileCache_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "shared", []byte(`"payload"`), time.Hour)
			if data, hit, err := c.Get(ctx, "shared"); err == nil && hit {
				assert.Equal(t, `"payload"`, string(data))
			}
		}()
	}
	wg.Wait()
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	n, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileCache_PathSharding(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	p1 := c.path("test")
	assert.Equal(t, p1, c.path("test"), "path should be deterministic")
	assert.NotEqual(t, p1, c.path("other"))
	assert.Len(t, filepath.Base(filepath.Dir(p1)), 2)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "http:npm:left-pad", Key("npm", "left-pad"))
	assert.NotEqual(t, Key("npm", "a:b"), Key("npm:a", "b:"))
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	assert.Equal(t, h1, Hash([]byte("hello")))
	assert.NotEqual(t, h1, Hash([]byte("world")))
	assert.Len(t, h1, 64)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0")
	assert.Error(t, err)
}
