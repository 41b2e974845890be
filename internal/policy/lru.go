package policy

import "time"

// nilSlot terminates the recency list.
const nilSlot = -1

type lruSlot[K comparable] struct {
	key  K
	prev int
	next int
}

// LRUStrategy orders keys by recency. Nodes live in a slot arena and are
// linked by index, so relinking never allocates and no node is shared by
// pointer between the index and the list.
type LRUStrategy[K comparable] struct {
	slots []lruSlot[K]
	free  []int
	index map[K]int
	head  int // most recently used
	tail  int // least recently used
}

// NewLRU returns an empty LRU strategy.
func NewLRU[K comparable]() *LRUStrategy[K] {
	return &LRUStrategy[K]{
		index: make(map[K]int),
		head:  nilSlot,
		tail:  nilSlot,
	}
}

func (*LRUStrategy[K]) Kind() Kind { return LRU }

func (s *LRUStrategy[K]) Len() int { return len(s.index) }

// OnGet moves key to the most recently used end.
func (s *LRUStrategy[K]) OnGet(key K) {
	if i, ok := s.index[key]; ok {
		s.moveToFront(i)
	}
}

// OnPut inserts key at the most recently used end, or moves it there if it is
// already tracked. An update counts as a use.
func (s *LRUStrategy[K]) OnPut(key K, _ time.Time) {
	if i, ok := s.index[key]; ok {
		s.moveToFront(i)
		return
	}
	i := s.alloc(key)
	s.index[key] = i
	s.pushFront(i)
}

func (s *LRUStrategy[K]) OnDelete(key K) {
	i, ok := s.index[key]
	if !ok {
		return
	}
	s.unlink(i)
	s.release(i)
	delete(s.index, key)
}

// Evict removes and returns the least recently used key.
func (s *LRUStrategy[K]) Evict() (K, bool) {
	if s.tail == nilSlot {
		var zero K
		return zero, false
	}
	i := s.tail
	key := s.slots[i].key
	s.unlink(i)
	s.release(i)
	delete(s.index, key)
	return key, true
}

func (s *LRUStrategy[K]) Clear() {
	s.slots = nil
	s.free = nil
	clear(s.index)
	s.head, s.tail = nilSlot, nilSlot
}

// Keys returns tracked keys from most to least recently used.
func (s *LRUStrategy[K]) Keys() []K {
	out := make([]K, 0, len(s.index))
	for i := s.head; i != nilSlot; i = s.slots[i].next {
		out = append(out, s.slots[i].key)
	}
	return out
}

func (s *LRUStrategy[K]) alloc(key K) int {
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[i] = lruSlot[K]{key: key, prev: nilSlot, next: nilSlot}
		return i
	}
	s.slots = append(s.slots, lruSlot[K]{key: key, prev: nilSlot, next: nilSlot})
	return len(s.slots) - 1
}

func (s *LRUStrategy[K]) release(i int) {
	var zero K
	s.slots[i] = lruSlot[K]{key: zero, prev: nilSlot, next: nilSlot}
	s.free = append(s.free, i)
}

func (s *LRUStrategy[K]) pushFront(i int) {
	s.slots[i].prev = nilSlot
	s.slots[i].next = s.head
	if s.head != nilSlot {
		s.slots[s.head].prev = i
	}
	s.head = i
	if s.tail == nilSlot {
		s.tail = i
	}
}

func (s *LRUStrategy[K]) unlink(i int) {
	prev, next := s.slots[i].prev, s.slots[i].next
	if prev != nilSlot {
		s.slots[prev].next = next
	} else {
		s.head = next
	}
	if next != nilSlot {
		s.slots[next].prev = prev
	} else {
		s.tail = prev
	}
	s.slots[i].prev, s.slots[i].next = nilSlot, nilSlot
}

func (s *LRUStrategy[K]) moveToFront(i int) {
	if s.head == i {
		return
	}
	s.unlink(i)
	s.pushFront(i)
}
