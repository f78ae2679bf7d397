package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fielddb/fieldauth/internal/core"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grant struct {
	ClientID string    `json:"client_id"`
	UserID   string    `json:"user_id"`
	Expires  time.Time `json:"expires"`
}

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	err := cache.Set(ctx, "test-key", 42, time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := cache.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if value != 42 {
		t.Errorf("Expected value 42, got %d", value)
	}
}

func TestMemoryCache_GetMiss(t *testing.T) {
	cache := NewMemoryCache[int64]()

	_, err := cache.Get(context.Background(), "non-existent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache[int64]()
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "expire-key", 100, time.Minute))

	value, err := cache.Get(ctx, "expire-key")
	require.NoError(t, err)
	assert.Equal(t, int64(100), value)

	now = now.Add(time.Minute)
	_, err = cache.Get(ctx, "expire-key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = cache.Take(ctx, "expire-key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Take(t *testing.T) {
	cache := NewMemoryCache[grant]()
	ctx := context.Background()

	want := grant{ClientID: "c1", UserID: "u1"}
	require.NoError(t, cache.Set(ctx, "code", want, time.Minute))

	got, err := cache.Take(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = cache.Take(ctx, "code")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Get(ctx, "code")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_TakeConcurrent(t *testing.T) {
	cache := NewMemoryCache[grant]()
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "code", grant{ClientID: "c1"}, time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Take(ctx, "code"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryCache_Sweep(t *testing.T) {
	cache := NewMemoryCache[int]()
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range sweepEvery - 1 {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("k%d", i), i, time.Second))
	}
	assert.Equal(t, sweepEvery-1, cache.Len())

	now = now.Add(2 * time.Second)
	require.NoError(t, cache.Set(ctx, "fresh", 1, time.Minute))
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "delete-key", 123, time.Minute))
	require.NoError(t, cache.Delete(ctx, "delete-key"))

	_, err := cache.Get(ctx, "delete-key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// deleting an absent key is not an error
	require.NoError(t, cache.Delete(ctx, "delete-key"))
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	_ = cache.Set(ctx, "key1", 1, time.Minute)
	_ = cache.Set(ctx, "key2", 2, time.Minute)

	require.NoError(t, cache.Close())

	_, err := cache.Get(ctx, "key1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, cache.Health(ctx))
}

func TestMemoryCache_GetWithFetch(t *testing.T) {
	cache := NewMemoryCache[string]()
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return "value-for-" + key, nil
	}

	for range 3 {
		v, err := cache.GetWithFetch(ctx, "k", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "value-for-k", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	boom := errors.New("boom")
	_, err := cache.GetWithFetch(ctx, "other", time.Minute, func(context.Context, string) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func newRedisCache(t *testing.T) (*RueidisCache[grant], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRueidisCache[grant](context.Background(), mr.Addr(), "", 0, "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRueidisCache_SetGetTake(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	var _ core.Cache[grant] = c

	want := grant{ClientID: "c1", UserID: "u1", Expires: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, c.Set(ctx, "code", want, time.Minute))
	assert.True(t, mr.Exists("test:code"))
	assert.Equal(t, time.Minute, mr.TTL("test:code"))

	got, err := c.Get(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = c.Take(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, mr.Exists("test:code"))

	_, err = c.Take(ctx, "code")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRueidisCache_Expiry(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "code", grant{ClientID: "c1"}, 2*time.Second))
	mr.FastForward(3 * time.Second)

	_, err := c.Get(ctx, "code")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRueidisCache_InvalidValue(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set("test:bad", "{not json"))

	_, err := c.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestRueidisCache_DeleteAndHealth(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "code", grant{ClientID: "c1"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "code"))
	assert.False(t, mr.Exists("test:code"))
	require.NoError(t, c.Health(ctx))
}

func TestNewRueidisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRueidisCache[grant](ctx, "127.0.0.1:1", "", 0, "test:")
	require.Error(t, err)
}
