package cache

import (
	"github.com/jmgilman/go/errors"

	"github.com/tstromberg/evictcache/internal/policy"
)

// Impl describes one registered implementation.
type Impl struct {
	Name  string
	New   Factory
	Sized SizedFactory // nil unless the cache is byte-budgeted
	Int   IntFactory   // nil unless an int-keyed variant exists
}

// Engine reports whether the implementation is the evictcache engine.
func (i Impl) Engine() bool {
	for _, k := range policy.Kinds {
		if i.Name == engineName(k) {
			return true
		}
	}
	return false
}

// NewSized creates the cache, passing entrySize through to byte-budgeted
// implementations and ignoring it for the rest.
func (i Impl) NewSized(capacity, entrySize int) Cache {
	if i.Sized != nil {
		return i.Sized(capacity, entrySize)
	}
	return i.New(capacity)
}

// impls lists every implementation in display order: the engine policies
// first, then the libraries they are compared against.
var impls = []Impl{
	{Name: engineName(policy.LRU), New: NewEngine(policy.LRU), Int: NewEngineInt(policy.LRU)},
	{Name: engineName(policy.LFU), New: NewEngine(policy.LFU), Int: NewEngineInt(policy.LFU)},
	{Name: engineName(policy.FIFO), New: NewEngine(policy.FIFO), Int: NewEngineInt(policy.FIFO)},
	{Name: engineName(policy.TTL), New: NewEngine(policy.TTL), Int: NewEngineInt(policy.TTL)},
	{Name: "otter", New: NewOtter, Int: NewOtterInt},
	{Name: "theine", New: NewTheine, Int: NewTheineInt},
	{Name: "ttlcache", New: NewTTLCache, Int: NewTTLCacheInt},
	{Name: "ristretto", New: NewRistretto, Int: NewRistrettoInt},
	{Name: "tinylfu", New: NewTinyLFU},
	{Name: "sieve", New: NewSieve},
	{Name: "s3-fifo", New: NewS3FIFO},
	{Name: "freelru-shard", New: NewFreeLRUSharded, Int: NewFreeLRUShardedInt},
	{Name: "freelru-sync", New: NewFreeLRUSynced},
	{Name: "freecache", New: NewFreecache, Sized: NewFreecacheSized},
	{Name: "2q", New: NewTwoQueue},
	{Name: "s4lru", New: NewS4LRU},
	{Name: "clock", New: NewClock},
	{Name: "gg-lfu", New: NewGenericsLFU},
	{Name: "lru", New: NewLRU},
}

// Names returns every registered name in display order.
func Names() []string {
	names := make([]string, len(impls))
	for i, impl := range impls {
		names[i] = impl.Name
	}
	return names
}

// Lookup returns the implementation registered under name.
func Lookup(name string) (Impl, error) {
	for _, impl := range impls {
		if impl.Name == name {
			return impl, nil
		}
	}
	return Impl{}, errors.Newf(errors.CodeNotFound, "unknown cache %q", name)
}

// Select returns the named implementations in display order. An empty list
// selects everything. Unknown names are an error.
func Select(names []string) ([]Impl, error) {
	if len(names) == 0 {
		return append([]Impl(nil), impls...), nil
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := Lookup(name); err != nil {
			return nil, err
		}
		want[name] = true
	}

	var out []Impl
	for _, impl := range impls {
		if want[impl.Name] {
			out = append(out, impl)
		}
	}
	return out, nil
}

// WithInt filters impls down to those with an int-keyed variant.
func WithInt(impls []Impl) []Impl {
	var out []Impl
	for _, impl := range impls {
		if impl.Int != nil {
			out = append(out, impl)
		}
	}
	return out
}
