package policy

import (
	"container/heap"
	"time"
)

type ttlItem[K comparable] struct {
	key      K
	deadline time.Time
	seq      uint64 // insertion order, breaks deadline ties
	index    int    // position in the heap
}

// deadlineHeap implements heap.Interface, earliest deadline on top.
type deadlineHeap[K comparable] []*ttlItem[K]

func (h deadlineHeap[K]) Len() int { return len(h) }

func (h deadlineHeap[K]) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h deadlineHeap[K]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap[K]) Push(x any) {
	item := x.(*ttlItem[K]) //nolint:errcheck,revive // heap only holds *ttlItem
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *deadlineHeap[K]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// TTLStrategy evicts by expiration deadline rather than usage. Already-expired
// keys come out first, most overdue first; when nothing has expired the key
// closest to its deadline is chosen so a full cache can still make room.
type TTLStrategy[K comparable] struct {
	items      map[K]*ttlItem[K]
	heap       deadlineHeap[K]
	seq        uint64
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTTL returns an empty TTL strategy. Keys put without a deadline expire
// defaultTTL after the put.
func NewTTL[K comparable](defaultTTL time.Duration, now func() time.Time) *TTLStrategy[K] {
	return &TTLStrategy[K]{
		items:      make(map[K]*ttlItem[K]),
		defaultTTL: defaultTTL,
		now:        now,
	}
}

func (*TTLStrategy[K]) Kind() Kind { return TTL }

func (s *TTLStrategy[K]) Len() int { return len(s.items) }

// OnGet is a no-op; the engine checks expiry itself.
func (*TTLStrategy[K]) OnGet(K) {}

// OnPut records or refreshes the deadline for key.
func (s *TTLStrategy[K]) OnPut(key K, deadline time.Time) {
	if deadline.IsZero() {
		deadline = s.now().Add(s.defaultTTL)
	}
	if item, ok := s.items[key]; ok {
		item.deadline = deadline
		heap.Fix(&s.heap, item.index)
		return
	}
	s.seq++
	item := &ttlItem[K]{key: key, deadline: deadline, seq: s.seq}
	s.items[key] = item
	heap.Push(&s.heap, item)
}

func (s *TTLStrategy[K]) OnDelete(key K) {
	item, ok := s.items[key]
	if !ok {
		return
	}
	heap.Remove(&s.heap, item.index)
	delete(s.items, key)
}

// Evict removes the key with the earliest deadline.
func (s *TTLStrategy[K]) Evict() (K, bool) {
	if len(s.heap) == 0 {
		var zero K
		return zero, false
	}
	item := heap.Pop(&s.heap).(*ttlItem[K]) //nolint:errcheck,revive // heap only holds *ttlItem
	delete(s.items, item.key)
	return item.key, true
}

func (s *TTLStrategy[K]) Clear() {
	clear(s.items)
	clear(s.heap)
	s.heap = s.heap[:0]
	s.seq = 0
}

// Deadline returns the deadline tracked for key.
func (s *TTLStrategy[K]) Deadline(key K) (time.Time, bool) {
	item, ok := s.items[key]
	if !ok {
		return time.Time{}, false
	}
	return item.deadline, true
}
