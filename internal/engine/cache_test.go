package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/evictcache/internal/policy"
	"github.com/tstromberg/evictcache/internal/stats"
	"github.com/tstromberg/evictcache/internal/workload"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCache[K comparable, V any](t *testing.T, capacity int, kind policy.Kind, opts ...Option) *Cache[K, V] {
	t.Helper()
	c, err := New[K, V](capacity, kind, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		kind     policy.Kind
		opts     []Option
	}{
		{"zero capacity", 0, policy.LRU, nil},
		{"negative capacity", -3, policy.LFU, nil},
		{"unknown policy", 10, policy.Kind(17), nil},
		{"negative default ttl", 10, policy.TTL, []Option{WithDefaultTTL(-time.Second)}},
		{"negative cleanup interval", 10, policy.FIFO, []Option{WithCleanupInterval(-time.Second)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New[string, int](tc.capacity, tc.kind, tc.opts...)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}

	c := newCache[string, int](t, 5, policy.FIFO, WithName("sessions"))
	assert.Equal(t, 5, c.Capacity())
	assert.Equal(t, policy.FIFO, c.Policy())
	assert.Equal(t, "sessions", c.Name())
	assert.Equal(t, 0, c.Size())
}

func TestRoundTrip(t *testing.T) {
	for _, kind := range policy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			c := newCache[string, string](t, 4, kind)
			require.NoError(t, c.Put("k", "v1"))
			got, ok := c.Get("k")
			require.True(t, ok)
			assert.Equal(t, "v1", got)

			require.NoError(t, c.Put("k", "v2"))
			got, _ = c.Get("k")
			assert.Equal(t, "v2", got)
			assert.Equal(t, 1, c.Size())
		})
	}
}

func TestLRU_CapacityTwoScenario(t *testing.T) {
	c := newCache[string, int](t, 2, policy.LRU)
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))
	_, ok := c.Get("a")
	require.True(t, ok)
	require.NoError(t, c.Put("c", 3))

	assert.True(t, c.ContainsKey("a"))
	assert.False(t, c.ContainsKey("b"))
	assert.True(t, c.ContainsKey("c"))

	s := c.Statistics()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(0), s.Misses)
	assert.Equal(t, uint64(1), s.Evictions)
	assert.Equal(t, uint64(3), s.Puts)
	assert.InDelta(t, 100.0, s.HitRate, 1e-9)
}

func TestLFU_EvictsLeastFrequent(t *testing.T) {
	c := newCache[string, int](t, 3, policy.LFU)
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))
	require.NoError(t, c.Put("c", 3))
	for range 3 {
		c.Get("a")
	}
	c.Get("c")

	require.NoError(t, c.Put("d", 4))
	assert.False(t, c.ContainsKey("b"))

	// After this read c and d tie below a, and c got there first.
	c.Get("d")
	require.NoError(t, c.Put("e", 5))
	assert.False(t, c.ContainsKey("c"))
	assert.True(t, c.ContainsKey("a"))
	assert.True(t, c.ContainsKey("d"))
}

func TestFIFO_EvictsOldestRegardlessOfReads(t *testing.T) {
	c := newCache[int, int](t, 3, policy.FIFO)
	for i := range 3 {
		require.NoError(t, c.Put(i, i))
	}
	for range 5 {
		c.Get(0)
	}
	require.NoError(t, c.Put(0, 100)) // update keeps position
	require.NoError(t, c.Put(3, 3))

	assert.False(t, c.ContainsKey(0))
	assert.ElementsMatch(t, []int{1, 2, 3}, c.Keys())
}

func TestTTL_ExpiryCountsExpirationNotEviction(t *testing.T) {
	clock := newFakeClock()
	for _, kind := range policy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			c := newCache[string, int](t, 10, kind, WithClock(clock.Now))
			require.NoError(t, c.PutWithTTL("k", 1, 10*time.Second))

			clock.Advance(9 * time.Second)
			_, ok := c.Get("k")
			require.True(t, ok)

			clock.Advance(time.Second)
			_, ok = c.Get("k")
			assert.False(t, ok, "entry expires at its deadline")
			assert.Equal(t, 0, c.Size())

			s := c.Statistics()
			assert.Equal(t, uint64(1), s.Expirations)
			assert.Equal(t, uint64(0), s.Evictions)
			assert.Equal(t, uint64(1), s.Hits)
			assert.Equal(t, uint64(1), s.Misses)
		})
	}
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := newCache[string, int](t, 10, policy.LRU, WithClock(clock.Now), WithDefaultTTL(time.Minute))
	require.NoError(t, c.Put("default", 1))
	require.NoError(t, c.PutWithTTL("short", 2, time.Second))

	e, ok := c.Inspect("default")
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(time.Minute), e.ExpiresAt)
	assert.Equal(t, time.Minute, e.TTL(clock.Now()))

	clock.Advance(2 * time.Second)
	assert.True(t, c.ContainsKey("default"))
	assert.False(t, c.ContainsKey("short"))

	// Without a default, Put entries never expire.
	forever := newCache[string, int](t, 10, policy.LRU, WithClock(clock.Now))
	require.NoError(t, forever.Put("k", 1))
	e, _ = forever.Inspect("k")
	assert.False(t, e.HasTTL())
	clock.Advance(24 * 365 * time.Hour)
	assert.True(t, forever.ContainsKey("k"))
}

func TestTTLPolicy_AlwaysAssignsDeadline(t *testing.T) {
	clock := newFakeClock()
	c := newCache[string, int](t, 3, policy.TTL, WithClock(clock.Now))
	require.NoError(t, c.Put("a", 1))
	e, ok := c.Inspect("a")
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(policy.DefaultTTL), e.ExpiresAt)
}

func TestTTLPolicy_EvictsNearestDeadline(t *testing.T) {
	clock := newFakeClock()
	c := newCache[string, int](t, 3, policy.TTL, WithClock(clock.Now))
	require.NoError(t, c.PutWithTTL("long", 1, time.Hour))
	require.NoError(t, c.PutWithTTL("short", 2, time.Minute))
	require.NoError(t, c.PutWithTTL("mid", 3, 10*time.Minute))

	c.Get("short") // reads do not matter for TTL ordering
	require.NoError(t, c.PutWithTTL("new", 4, 30*time.Minute))

	assert.False(t, c.ContainsKey("short"))
	assert.ElementsMatch(t, []string{"long", "mid", "new"}, c.Keys())
	assert.Equal(t, uint64(1), c.Statistics().Evictions)
}

func TestUpdateAtCapacityDoesNotEvict(t *testing.T) {
	for _, kind := range policy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			c := newCache[int, int](t, 2, kind)
			require.NoError(t, c.Put(1, 1))
			require.NoError(t, c.Put(2, 2))
			require.NoError(t, c.Put(2, 20))
			assert.Equal(t, 2, c.Size())
			assert.Equal(t, uint64(0), c.Statistics().Evictions)
		})
	}
}

func TestUpdateRefreshesEntry(t *testing.T) {
	clock := newFakeClock()
	c := newCache[string, int](t, 2, policy.LRU, WithClock(clock.Now))
	require.NoError(t, c.PutWithTTL("k", 1, time.Second))
	created := clock.Now()

	clock.Advance(500 * time.Millisecond)
	require.NoError(t, c.PutWithTTL("k", 2, 10*time.Second))

	e, ok := c.Inspect("k")
	require.True(t, ok)
	assert.Equal(t, 2, e.Value)
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, clock.Now(), e.LastAccessedAt)
	assert.Equal(t, uint64(2), e.AccessFrequency)
	assert.Equal(t, clock.Now().Add(10*time.Second), e.ExpiresAt)

	clock.Advance(time.Second)
	assert.True(t, c.ContainsKey("k"), "refreshed TTL outlives the original one")
}

func TestNilKeysAndValues(t *testing.T) {
	c := newCache[*string, *int](t, 2, policy.LRU)

	one := 1
	err := c.Put(nil, &one)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	key := "k"
	err = c.Put(&key, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 0, c.Size())

	_, ok := c.Get(nil)
	assert.False(t, ok)
	assert.False(t, c.ContainsKey(nil))
	assert.False(t, c.Delete(nil))
	assert.Equal(t, stats.Snapshot{}, c.Statistics(), "nil lookups change nothing")

	require.NoError(t, c.Put(&key, &one))
	got, ok := c.Get(&key)
	require.True(t, ok)
	assert.Equal(t, 1, *got)

	iface := newCache[any, any](t, 2, policy.FIFO)
	assert.Error(t, iface.Put(nil, 1))
	assert.Error(t, iface.Put("k", nil))
	var nilPtr *int
	assert.Error(t, iface.Put("k", nilPtr), "typed nil is still nil")
	assert.NoError(t, iface.Put("k", 0))
}

func TestNegativeTTLRejected(t *testing.T) {
	c := newCache[string, int](t, 2, policy.LRU)
	err := c.PutWithTTL("k", 1, -time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, uint64(0), c.Statistics().Puts)
}

func TestDelete(t *testing.T) {
	c := newCache[string, int](t, 3, policy.LFU)
	require.NoError(t, c.Put("a", 1))

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.False(t, c.Delete("missing"))
	assert.Equal(t, uint64(1), c.Statistics().Removes)

	// The strategy forgot the key too: filling up evicts only live keys.
	for _, k := range []string{"b", "c", "d", "e"} {
		require.NoError(t, c.Put(k, 0))
	}
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, uint64(1), c.Statistics().Evictions)
}

func TestClearIsIdempotent(t *testing.T) {
	c := newCache[int, int](t, 4, policy.LRU)
	for i := range 6 {
		require.NoError(t, c.Put(i, i))
		c.Get(i)
	}
	c.Get(100)

	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, stats.Snapshot{}, c.Statistics())
	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, stats.Snapshot{}, c.Statistics())

	require.NoError(t, c.Put(1, 1))
	v, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestContainsKeyHasNoAccessSideEffects(t *testing.T) {
	clock := newFakeClock()
	c := newCache[string, int](t, 2, policy.LRU, WithClock(clock.Now))
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))

	assert.True(t, c.ContainsKey("a"))
	assert.False(t, c.ContainsKey("zzz"))
	require.NoError(t, c.Put("c", 3))
	assert.False(t, c.ContainsKey("a"), "ContainsKey must not refresh recency")

	s := c.Statistics()
	assert.Equal(t, uint64(0), s.Hits)
	assert.Equal(t, uint64(0), s.Misses)

	require.NoError(t, c.PutWithTTL("t", 1, time.Second))
	clock.Advance(time.Second)
	assert.False(t, c.ContainsKey("t"))
	s = c.Statistics()
	assert.Equal(t, uint64(1), s.Expirations)
	assert.Equal(t, uint64(0), s.Misses)
}

func TestPeekHasNoSideEffects(t *testing.T) {
	c := newCache[string, int](t, 2, policy.LRU)
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Peek("missing")
	assert.False(t, ok)

	require.NoError(t, c.Put("c", 3))
	_, ok = c.Peek("a")
	assert.False(t, ok, "Peek must not refresh recency")
	assert.Equal(t, uint64(0), c.Statistics().Lookups())

	e, ok := c.Inspect("b")
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.AccessFrequency)
}

func TestCleanupExpired(t *testing.T) {
	clock := newFakeClock()
	c := newCache[int, int](t, 10, policy.FIFO, WithClock(clock.Now))
	for i := range 6 {
		ttl := time.Duration(i+1) * time.Second
		require.NoError(t, c.PutWithTTL(i, i, ttl))
	}
	require.NoError(t, c.Put(99, 99))

	clock.Advance(3 * time.Second)
	assert.Equal(t, 3, c.CleanupExpired())
	assert.Equal(t, 0, c.CleanupExpired())
	assert.ElementsMatch(t, []int{3, 4, 5, 99}, c.Keys())
	assert.Equal(t, uint64(3), c.Statistics().Expirations)

	// Swept keys left the FIFO queue too.
	for i := 100; i < 106; i++ {
		require.NoError(t, c.Put(i, i))
	}
	assert.Equal(t, 10, c.Size())
	assert.Equal(t, uint64(0), c.Statistics().Evictions)
}

func TestBackgroundSweeper(t *testing.T) {
	c, err := New[string, int](10, policy.LRU, WithCleanupInterval(5*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, c.PutWithTTL("a", 1, time.Millisecond))
	require.NoError(t, c.PutWithTTL("b", 2, time.Millisecond))
	require.NoError(t, c.Put("keep", 3))

	require.Eventually(t, func() bool { return c.Size() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(2), c.Statistics().Expirations)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// Still usable after Close.
	require.NoError(t, c.Put("x", 1))
	assert.True(t, c.ContainsKey("x"))
}

// noVictim wraps a strategy but refuses to pick a victim.
type noVictim[K comparable] struct {
	policy.Strategy[K]
}

func (noVictim[K]) Evict() (K, bool) {
	var zero K
	return zero, false
}

func TestEvictionImpossibleIsLoggedAndInserted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newCache[string, int](t, 2, policy.LRU, WithLogger(logger), WithName("broken"))
	c.strategy = noVictim[string]{c.strategy}

	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))
	require.NoError(t, c.Put("c", 3))

	assert.Equal(t, 3, c.Size())
	assert.Equal(t, uint64(0), c.Statistics().Evictions)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "no victim")
	assert.Contains(t, buf.String(), "cache=broken")
}

func TestEvictionIsLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newCache[string, int](t, 1, policy.FIFO, WithLogger(logger))
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))

	assert.Contains(t, buf.String(), "evicted entry")
	assert.Contains(t, buf.String(), "key=a")
	assert.Contains(t, buf.String(), "policy=fifo")
}

// TestRandomOperations drives each policy with a mixed workload and checks the
// invariants that must hold after every call.
func TestRandomOperations(t *testing.T) {
	clock := newFakeClock()
	ops := workload.GenerateMixed(20000, 300, 0.9, workload.Mix{Get: 60, Put: 35, Delete: 5}, 11)

	for _, kind := range policy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			c := newCache[int, int](t, 64, kind, WithClock(clock.Now))
			var gets uint64

			for i, op := range ops {
				switch op.Kind {
				case workload.OpGet:
					gets++
					if v, ok := c.Get(op.Key); ok {
						require.Equal(t, op.Key*7, v)
					}
				case workload.OpPut:
					ttl := time.Duration(op.Key%5) * time.Second // 0 means no TTL outside the TTL policy
					require.NoError(t, c.PutWithTTL(op.Key, op.Key*7, ttl))
				case workload.OpDelete:
					c.Delete(op.Key)
				}
				if i%100 == 0 {
					clock.Advance(time.Second)
				}

				require.LessOrEqual(t, c.Size(), c.Capacity(), "op %d", i)
				require.Equal(t, c.Size(), c.strategy.Len(), "op %d: strategy out of sync", i)
			}

			s := c.Statistics()
			assert.Equal(t, gets, s.Lookups())
			assert.GreaterOrEqual(t, s.HitRate, 0.0)
			assert.LessOrEqual(t, s.HitRate, 100.0)
			assert.Positive(t, s.Evictions)
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	for _, kind := range policy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			c := newCache[string, int](t, 128, kind, WithCleanupInterval(time.Millisecond))

			const workers = 8
			const perWorker = 2000
			var wg sync.WaitGroup
			for w := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					keys := workload.GenerateZipfInt(perWorker, 512, 0.9, uint64(w))
					for i, k := range keys {
						key := fmt.Sprintf("k%d", k)
						switch i % 4 {
						case 0:
							_ = c.PutWithTTL(key, k, 50*time.Millisecond)
						case 3:
							c.Delete(key)
						default:
							if v, ok := c.Get(key); ok && v != k {
								t.Errorf("Get(%s) = %d", key, v)
							}
						}
					}
				}()
			}
			wg.Wait()

			assert.LessOrEqual(t, c.Size(), c.Capacity())
			assert.Equal(t, uint64(workers*perWorker/2), c.Statistics().Lookups())
		})
	}
}

func BenchmarkGet(b *testing.B) {
	for _, kind := range policy.Kinds {
		b.Run(kind.String(), func(b *testing.B) {
			c, err := New[int, int](10000, kind)
			require.NoError(b, err)
			keys := workload.GenerateZipfInt(1<<16, 20000, 0.99, 1)
			for _, k := range keys[:10000] {
				_ = c.Put(k, k)
			}
			b.ResetTimer()
			for i := range b.N {
				c.Get(keys[i&(len(keys)-1)])
			}
		})
	}
}

func BenchmarkPut(b *testing.B) {
	for _, kind := range policy.Kinds {
		b.Run(kind.String(), func(b *testing.B) {
			c, err := New[int, int](10000, kind)
			require.NoError(b, err)
			keys := workload.GenerateZipfInt(1<<16, 20000, 0.99, 1)
			b.ResetTimer()
			for i := range b.N {
				_ = c.Put(keys[i&(len(keys)-1)], i)
			}
		})
	}
}
