package policy

import (
	"container/list"
	"time"
)

// FIFOStrategy evicts keys in insertion order. Reads never reorder, and
// putting an existing key keeps its original position.
type FIFOStrategy[K comparable] struct {
	queue *list.List // front = oldest
	index map[K]*list.Element
}

// NewFIFO returns an empty FIFO strategy.
func NewFIFO[K comparable]() *FIFOStrategy[K] {
	return &FIFOStrategy[K]{
		queue: list.New(),
		index: make(map[K]*list.Element),
	}
}

func (*FIFOStrategy[K]) Kind() Kind { return FIFO }

func (s *FIFOStrategy[K]) Len() int { return s.queue.Len() }

func (*FIFOStrategy[K]) OnGet(K) {}

func (s *FIFOStrategy[K]) OnPut(key K, _ time.Time) {
	if _, ok := s.index[key]; ok {
		return
	}
	s.index[key] = s.queue.PushBack(key)
}

func (s *FIFOStrategy[K]) OnDelete(key K) {
	if el, ok := s.index[key]; ok {
		s.queue.Remove(el)
		delete(s.index, key)
	}
}

// Evict dequeues the oldest key.
func (s *FIFOStrategy[K]) Evict() (K, bool) {
	el := s.queue.Front()
	if el == nil {
		var zero K
		return zero, false
	}
	key := s.queue.Remove(el).(K) //nolint:errcheck,revive // queue only holds K
	delete(s.index, key)
	return key, true
}

func (s *FIFOStrategy[K]) Clear() {
	s.queue.Init()
	clear(s.index)
}

// Keys returns tracked keys from oldest to newest.
func (s *FIFOStrategy[K]) Keys() []K {
	out := make([]K, 0, s.queue.Len())
	for el := s.queue.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(K)) //nolint:errcheck,revive // queue only holds K
	}
	return out
}
