// Package policy implements the eviction strategies used by the cache engine.
//
// A strategy never owns values. It tracks keys in whatever order it needs to
// pick a victim, and the engine keeps it in sync by reporting every get, put
// and delete. All methods are called with the engine lock held, so strategies
// are not safe for concurrent use on their own.
package policy

import (
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
)

// Kind names an eviction policy.
type Kind int

const (
	// LRU evicts the least recently used key.
	LRU Kind = iota + 1
	// LFU evicts the least frequently used key, oldest first among equals.
	LFU
	// FIFO evicts the oldest inserted key and ignores reads.
	FIFO
	// TTL evicts the key with the earliest expiration deadline.
	TTL
)

// Kinds lists every supported policy in display order.
var Kinds = []Kind{LRU, LFU, FIFO, TTL}

func (k Kind) String() string {
	switch k {
	case LRU:
		return "lru"
	case LFU:
		return "lfu"
	case FIFO:
		return "fifo"
	case TTL:
		return "ttl"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the supported policies.
func (k Kind) Valid() bool {
	return k >= LRU && k <= TTL
}

// ParseKind converts a policy name such as "lru" or "LFU" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru":
		return LRU, nil
	case "lfu":
		return LFU, nil
	case "fifo":
		return FIFO, nil
	case "ttl":
		return TTL, nil
	default:
		return 0, errors.Newf(errors.CodeInvalidInput, "unknown eviction policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown eviction policy %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Strategy is the bookkeeping a policy needs to choose a victim.
//
// OnPut is called for new and existing keys alike. OnDelete is called for
// explicit deletes, evictions performed by the engine, and expirations, so the
// strategy always mirrors the engine's map. Evict removes the chosen key from
// the strategy and returns it; the engine drops the map entry.
type Strategy[K comparable] interface {
	OnGet(key K)
	OnPut(key K, deadline time.Time)
	OnDelete(key K)
	Evict() (K, bool)
	Clear()
	Len() int
	Kind() Kind
}

// DefaultTTL is the TTL policy's deadline for keys put without one, used when
// Options.DefaultTTL is zero.
const DefaultTTL = time.Minute

// Options configures New.
type Options struct {
	// DefaultTTL applies to keys put under the TTL policy without a deadline.
	DefaultTTL time.Duration
	// Now is the clock used by the TTL policy. Defaults to time.Now.
	Now func() time.Time
}

// New returns an empty strategy of the given kind.
func New[K comparable](kind Kind, opts Options) (Strategy[K], error) {
	switch kind {
	case LRU:
		return NewLRU[K](), nil
	case LFU:
		return NewLFU[K](), nil
	case FIFO:
		return NewFIFO[K](), nil
	case TTL:
		if opts.DefaultTTL < 0 {
			return nil, errors.Newf(errors.CodeInvalidInput, "negative default ttl %s", opts.DefaultTTL)
		}
		ttl := opts.DefaultTTL
		if ttl == 0 {
			ttl = DefaultTTL
		}
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		return NewTTL[K](ttl, now), nil
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown eviction policy %d", int(kind))
	}
}
