package workload

import "math/rand/v2"

// OpKind is the type of a generated cache operation.
type OpKind uint8

const (
	OpGet OpKind = iota
	OpPut
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpGet:
		return "get"
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is a single cache operation against an integer key.
type Op struct {
	Kind OpKind
	Key  int
}

// Mix is the relative weight of each operation kind in a mixed workload.
type Mix struct {
	Get    int
	Put    int
	Delete int
}

// ReadHeavy is a 90/9/1 get/put/delete mix.
var ReadHeavy = Mix{Get: 90, Put: 9, Delete: 1}

func (m Mix) total() int { return m.Get + m.Put + m.Delete }

// GenerateMixed generates n operations over Zipf-distributed keys, choosing
// each operation's kind by the weights in mix. An all-zero mix yields gets.
func GenerateMixed(n, keySpace int, theta float64, mix Mix, seed uint64) []Op {
	keys := GenerateZipfInt(n, keySpace, theta, seed)
	rng := rand.New(rand.NewPCG(seed^0x9e3779b97f4a7c15, seed))
	total := mix.total()

	ops := make([]Op, n)
	for i, k := range keys {
		kind := OpGet
		if total > 0 {
			r := rng.IntN(total)
			switch {
			case r < mix.Get:
				kind = OpGet
			case r < mix.Get+mix.Put:
				kind = OpPut
			default:
				kind = OpDelete
			}
		}
		ops[i] = Op{Kind: kind, Key: k}
	}
	return ops
}

// GenerateScan generates n keys that sweep 0..keySpace-1 in order and wrap
// around. A cyclic scan larger than the cache is the worst case for LRU.
func GenerateScan(n, keySpace int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i % keySpace
	}
	return keys
}

// GenerateUniform generates n keys drawn uniformly from 0..keySpace-1.
func GenerateUniform(n, keySpace int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	keys := make([]int, n)
	for i := range keys {
		keys[i] = rng.IntN(keySpace)
	}
	return keys
}
