package policy

import "time"

type lfuNode[K comparable] struct {
	key        K
	freq       uint64
	prev, next *lfuNode[K]
}

// lfuBucket holds the keys sharing one access count, oldest touch first.
type lfuBucket[K comparable] struct {
	head, tail *lfuNode[K]
	size       int
}

func (b *lfuBucket[K]) pushBack(n *lfuNode[K]) {
	n.prev, n.next = b.tail, nil
	if b.tail != nil {
		b.tail.next = n
	} else {
		b.head = n
	}
	b.tail = n
	b.size++
}

func (b *lfuBucket[K]) remove(n *lfuNode[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		b.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		b.tail = n.prev
	}
	n.prev, n.next = nil, nil
	b.size--
}

// LFUStrategy evicts the key with the lowest access count. Keys are grouped
// in per-frequency buckets and minFreq tracks the lowest non-empty bucket, so
// touches and evictions are O(1).
//
// minFreq is only updated where it can change: a new key resets it to 1, and a
// touch that empties the minimum bucket advances it. A delete or eviction that
// empties the minimum bucket marks it stale; the next insert resets it, and an
// Evict that finds it stale rescans the live buckets.
type LFUStrategy[K comparable] struct {
	nodes    map[K]*lfuNode[K]
	buckets  map[uint64]*lfuBucket[K]
	minFreq  uint64
	minStale bool
}

// NewLFU returns an empty LFU strategy.
func NewLFU[K comparable]() *LFUStrategy[K] {
	return &LFUStrategy[K]{
		nodes:   make(map[K]*lfuNode[K]),
		buckets: make(map[uint64]*lfuBucket[K]),
	}
}

func (*LFUStrategy[K]) Kind() Kind { return LFU }

func (s *LFUStrategy[K]) Len() int { return len(s.nodes) }

func (s *LFUStrategy[K]) OnGet(key K) {
	if n, ok := s.nodes[key]; ok {
		s.touch(n)
	}
}

// OnPut admits a new key at frequency 1, or counts a use of an existing one.
func (s *LFUStrategy[K]) OnPut(key K, _ time.Time) {
	if n, ok := s.nodes[key]; ok {
		s.touch(n)
		return
	}
	n := &lfuNode[K]{key: key, freq: 1}
	s.nodes[key] = n
	s.bucket(1).pushBack(n)
	s.minFreq = 1
	s.minStale = false
}

func (s *LFUStrategy[K]) OnDelete(key K) {
	n, ok := s.nodes[key]
	if !ok {
		return
	}
	delete(s.nodes, key)
	s.detach(n)
}

// Evict removes the oldest key in the lowest-frequency bucket.
func (s *LFUStrategy[K]) Evict() (K, bool) {
	var zero K
	if len(s.nodes) == 0 {
		return zero, false
	}
	if s.minStale {
		s.recomputeMin()
	}
	b, ok := s.buckets[s.minFreq]
	if !ok || b.head == nil {
		// Only reachable if bookkeeping drifted; recover rather than fail.
		s.recomputeMin()
		if b, ok = s.buckets[s.minFreq]; !ok || b.head == nil {
			return zero, false
		}
	}
	n := b.head
	delete(s.nodes, n.key)
	s.detach(n)
	return n.key, true
}

func (s *LFUStrategy[K]) Clear() {
	clear(s.nodes)
	clear(s.buckets)
	s.minFreq = 0
	s.minStale = false
}

// Frequency returns the access count tracked for key.
func (s *LFUStrategy[K]) Frequency(key K) (uint64, bool) {
	n, ok := s.nodes[key]
	if !ok {
		return 0, false
	}
	return n.freq, true
}

// MinFrequency returns the lowest access count among tracked keys.
func (s *LFUStrategy[K]) MinFrequency() uint64 {
	if s.minStale {
		s.recomputeMin()
	}
	return s.minFreq
}

func (s *LFUStrategy[K]) touch(n *lfuNode[K]) {
	old := n.freq
	b := s.buckets[old]
	b.remove(n)
	if b.size == 0 {
		delete(s.buckets, old)
		if old == s.minFreq && !s.minStale {
			s.minFreq = old + 1
		}
	}
	n.freq++
	s.bucket(n.freq).pushBack(n)
}

// detach removes n from its bucket after the node index has been updated.
func (s *LFUStrategy[K]) detach(n *lfuNode[K]) {
	b := s.buckets[n.freq]
	b.remove(n)
	if b.size > 0 {
		return
	}
	delete(s.buckets, n.freq)
	if n.freq == s.minFreq {
		s.minStale = true
	}
}

func (s *LFUStrategy[K]) bucket(freq uint64) *lfuBucket[K] {
	b, ok := s.buckets[freq]
	if !ok {
		b = &lfuBucket[K]{}
		s.buckets[freq] = b
	}
	return b
}

// recomputeMin scans the live buckets, not the keys.
func (s *LFUStrategy[K]) recomputeMin() {
	s.minFreq = 0
	for f := range s.buckets {
		if s.minFreq == 0 || f < s.minFreq {
			s.minFreq = f
		}
	}
	s.minStale = false
}
