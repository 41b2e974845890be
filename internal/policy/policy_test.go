package policy

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"lru", LRU},
		{"LFU", LFU},
		{" fifo ", FIFO},
		{"Ttl", TTL},
	}
	for _, tc := range tests {
		got, err := ParseKind(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
		assert.Equal(t, got, mustParse(t, got.String()))
	}

	_, err := ParseKind("arc")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func mustParse(t *testing.T, s string) Kind {
	t.Helper()
	k, err := ParseKind(s)
	require.NoError(t, err)
	return k
}

func TestKindText(t *testing.T) {
	b, err := LFU.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "lfu", string(b))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("FIFO")))
	assert.Equal(t, FIFO, k)

	_, err = Kind(99).MarshalText()
	assert.Error(t, err)
	assert.False(t, Kind(0).Valid())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestNew(t *testing.T) {
	for _, k := range Kinds {
		s, err := New[string](k, Options{})
		require.NoError(t, err)
		assert.Equal(t, k, s.Kind())
		assert.Equal(t, 0, s.Len())
		_, ok := s.Evict()
		assert.False(t, ok, "empty %s strategy should have no victim", k)
	}

	_, err := New[string](Kind(42), Options{})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = New[string](TTL, Options{DefaultTTL: -time.Second})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewLRU[string]()
	for _, k := range []string{"a", "b", "c"} {
		s.OnPut(k, time.Time{})
	}
	assert.Equal(t, []string{"c", "b", "a"}, s.Keys())

	s.OnGet("a")
	assert.Equal(t, []string{"a", "c", "b"}, s.Keys())

	// Re-putting counts as a use.
	s.OnPut("b", time.Time{})
	assert.Equal(t, []string{"b", "a", "c"}, s.Keys())

	victim, ok := s.Evict()
	require.True(t, ok)
	assert.Equal(t, "c", victim)
	assert.Equal(t, 2, s.Len())
}

func TestLRU_SlotReuse(t *testing.T) {
	s := NewLRU[int]()
	for i := range 4 {
		s.OnPut(i, time.Time{})
	}
	s.OnDelete(1)
	s.OnDelete(2)
	s.OnDelete(99) // unknown keys are ignored
	s.OnPut(10, time.Time{})
	s.OnPut(11, time.Time{})

	assert.Len(t, s.slots, 4, "freed slots should be reused")
	assert.Equal(t, []int{11, 10, 3, 0}, s.Keys())

	for _, want := range []int{0, 3, 10, 11} {
		got, ok := s.Evict()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := s.Evict()
	assert.False(t, ok)
}

func TestLRU_DeleteHeadAndTail(t *testing.T) {
	s := NewLRU[string]()
	s.OnPut("a", time.Time{})
	s.OnPut("b", time.Time{})
	s.OnPut("c", time.Time{})

	s.OnDelete("c") // head
	s.OnDelete("a") // tail
	assert.Equal(t, []string{"b"}, s.Keys())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Keys())
	s.OnPut("z", time.Time{})
	assert.Equal(t, []string{"z"}, s.Keys())
}

func TestLFU_EvictsLowestFrequencyOldestFirst(t *testing.T) {
	s := NewLFU[string]()
	for _, k := range []string{"a", "b", "c", "d"} {
		s.OnPut(k, time.Time{})
	}
	s.OnGet("b")
	s.OnGet("c")
	s.OnGet("d")

	f, ok := s.Frequency("b")
	require.True(t, ok)
	assert.Equal(t, uint64(2), f)

	victim, ok := s.Evict()
	require.True(t, ok)
	assert.Equal(t, "a", victim, "a is the only key still at frequency 1")

	// b, c and d share frequency 2; b was touched first.
	victim, ok = s.Evict()
	require.True(t, ok)
	assert.Equal(t, "b", victim)
}

func TestLFU_MinFrequencyAdvancesOnTouch(t *testing.T) {
	s := NewLFU[string]()
	s.OnPut("a", time.Time{})
	s.OnPut("b", time.Time{})
	s.OnGet("a")
	s.OnGet("b")
	assert.Equal(t, uint64(2), s.MinFrequency())

	s.OnPut("a", time.Time{}) // update counts as a use
	assert.Equal(t, uint64(2), s.MinFrequency())
	f, _ := s.Frequency("a")
	assert.Equal(t, uint64(3), f)

	s.OnPut("c", time.Time{})
	assert.Equal(t, uint64(1), s.MinFrequency())
}

func TestLFU_StaleMinimumAfterDelete(t *testing.T) {
	s := NewLFU[string]()
	s.OnPut("a", time.Time{})
	s.OnPut("b", time.Time{})
	s.OnGet("b")
	s.OnGet("b")

	// Deleting the only frequency-1 key leaves minFreq pointing at an
	// empty bucket until something needs it.
	s.OnDelete("a")
	assert.True(t, s.minStale)

	victim, ok := s.Evict()
	require.True(t, ok)
	assert.Equal(t, "b", victim)
	assert.Equal(t, 0, s.Len())

	_, ok = s.Evict()
	assert.False(t, ok)
}

func TestLFU_EvictThenInsertResetsMinimum(t *testing.T) {
	s := NewLFU[int]()
	s.OnPut(1, time.Time{})
	victim, ok := s.Evict()
	require.True(t, ok)
	assert.Equal(t, 1, victim)

	s.OnPut(2, time.Time{})
	assert.False(t, s.minStale)
	assert.Equal(t, uint64(1), s.MinFrequency())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	_, ok = s.Frequency(2)
	assert.False(t, ok)
}

func TestFIFO_IgnoresAccess(t *testing.T) {
	s := NewFIFO[string]()
	s.OnPut("a", time.Time{})
	s.OnPut("b", time.Time{})
	s.OnPut("c", time.Time{})
	for range 10 {
		s.OnGet("a")
	}
	s.OnPut("a", time.Time{}) // existing keys keep their position
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())

	victim, ok := s.Evict()
	require.True(t, ok)
	assert.Equal(t, "a", victim)

	s.OnDelete("b")
	assert.Equal(t, []string{"c"}, s.Keys())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestTTL_EvictsEarliestDeadline(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s := NewTTL[string](time.Hour, func() time.Time { return now })

	s.OnPut("late", base.Add(30*time.Minute))
	s.OnPut("soon", base.Add(time.Minute))
	s.OnPut("default", time.Time{}) // base + 1h
	s.OnPut("mid", base.Add(10*time.Minute))

	d, ok := s.Deadline("default")
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Hour), d)

	// Nothing has expired yet: nearest deadline first.
	victim, ok := s.Evict()
	require.True(t, ok)
	assert.Equal(t, "soon", victim)

	// Refreshing a deadline reorders it.
	s.OnPut("late", base.Add(5*time.Minute))
	now = base.Add(20 * time.Minute)
	victim, _ = s.Evict()
	assert.Equal(t, "late", victim, "most overdue expired key goes first")
	victim, _ = s.Evict()
	assert.Equal(t, "mid", victim)
	victim, _ = s.Evict()
	assert.Equal(t, "default", victim)
	_, ok = s.Evict()
	assert.False(t, ok)
}

func TestTTL_TiesBreakByInsertionOrder(t *testing.T) {
	deadline := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewTTL[int](time.Minute, time.Now)
	for i := range 5 {
		s.OnPut(i, deadline)
	}
	s.OnDelete(2)
	for _, want := range []int{0, 1, 3, 4} {
		got, ok := s.Evict()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	s.OnPut(7, deadline)
	s.Clear()
	assert.Equal(t, 0, s.Len())
	_, ok := s.Deadline(7)
	assert.False(t, ok)
}

// TestStrategiesTrackMembership drives every strategy with a random sequence of
// notifications and checks it always tracks exactly the live key set.
func TestStrategiesTrackMembership(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, kind := range Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			s, err := New[int](kind, Options{Now: func() time.Time { return base }})
			require.NoError(t, err)

			rng := rand.New(rand.NewPCG(7, 8))
			live := map[int]bool{}
			for i := range 5000 {
				key := rng.IntN(64)
				switch rng.IntN(4) {
				case 0:
					if live[key] {
						s.OnGet(key)
					}
				case 1:
					s.OnPut(key, base.Add(time.Duration(rng.IntN(1000))*time.Second))
					live[key] = true
				case 2:
					s.OnDelete(key)
					delete(live, key)
				case 3:
					if victim, ok := s.Evict(); ok {
						require.True(t, live[victim], "step %d: evicted unknown key %d", i, victim)
						delete(live, victim)
					} else {
						require.Empty(t, live, "step %d: no victim with %d live keys", i, len(live))
					}
				}
				require.Equal(t, len(live), s.Len(), "step %d", i)
			}

			for len(live) > 0 {
				victim, ok := s.Evict()
				require.True(t, ok)
				require.True(t, live[victim])
				delete(live, victim)
			}
		})
	}
}
