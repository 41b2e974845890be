// Package stats holds the passive counters a cache engine keeps about itself.
package stats

import "fmt"

// Counters accumulates engine events. It has no locking of its own: the
// engine mutates it under the same lock that guards its map.
type Counters struct {
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
	puts        uint64
	removes     uint64
}

func (c *Counters) RecordHit()        { c.hits++ }
func (c *Counters) RecordMiss()       { c.misses++ }
func (c *Counters) RecordEviction()   { c.evictions++ }
func (c *Counters) RecordExpiration() { c.expirations++ }
func (c *Counters) RecordPut()        { c.puts++ }
func (c *Counters) RecordRemove()     { c.removes++ }

// Reset zeroes every counter.
func (c *Counters) Reset() {
	*c = Counters{}
}

// Snapshot returns a copy of the counters with the derived hit rate.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Puts:        c.puts,
		Removes:     c.removes,
	}
	s.HitRate = HitRate(s.Hits, s.Misses)
	return s
}

// Snapshot is a point-in-time, read-only view of Counters.
type Snapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`   // capacity-driven removals
	Expirations uint64  `json:"expirations"` // TTL-driven removals
	Puts        uint64  `json:"puts"`
	Removes     uint64  `json:"removes"` // explicit deletes that removed something
	HitRate     float64 `json:"hitRate"` // percentage, 0-100
}

// Lookups returns the number of lookups that counted as a hit or a miss.
func (s Snapshot) Lookups() uint64 {
	return s.Hits + s.Misses
}

func (s Snapshot) String() string {
	return fmt.Sprintf("hits=%d misses=%d evictions=%d expirations=%d puts=%d removes=%d hitRate=%.2f%%",
		s.Hits, s.Misses, s.Evictions, s.Expirations, s.Puts, s.Removes, s.HitRate)
}

// HitRate returns hits / (hits + misses) as a percentage, or 0 with no lookups.
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
