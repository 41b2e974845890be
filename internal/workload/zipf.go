// Package workload generates cache workload patterns.
package workload

import (
	"math"
	"math/rand/v2"
)

// maxTheta keeps the exponent 1/(1-theta) finite.
const maxTheta = 0.9999

// Zipf draws integers in [0, keySpace) with Zipfian skew using the
// Gray et al. closed-form method, so each draw is O(1) after an O(keySpace)
// setup. Low keys are the popular ones.
type Zipf struct {
	rng          *rand.Rand
	keySpace     int
	spread       float64
	zetaN        float64
	alpha        float64
	eta          float64
	halfPowTheta float64
}

// NewZipf prepares a generator. theta controls the skew (higher = more
// skewed) and is capped just below 1.
func NewZipf(keySpace int, theta float64, seed uint64) *Zipf {
	theta = min(theta, maxTheta)
	spread := keySpace + 1
	zeta2 := computeZeta(2, theta)
	zetaN := computeZeta(uint64(spread), theta) //nolint:gosec // keySpace is positive

	return &Zipf{
		rng:          rand.New(rand.NewPCG(seed, seed+1)),
		keySpace:     keySpace,
		spread:       float64(spread),
		zetaN:        zetaN,
		alpha:        1.0 / (1.0 - theta),
		eta:          (1 - math.Pow(2.0/float64(spread), 1.0-theta)) / (1.0 - zeta2/zetaN),
		halfPowTheta: 1.0 + math.Pow(0.5, theta),
	}
}

// Next returns the next key.
func (z *Zipf) Next() int {
	u := z.rng.Float64()
	uz := u * z.zetaN
	var k int
	switch {
	case uz < 1.0:
		k = 0
	case uz < z.halfPowTheta:
		k = 1
	default:
		k = int(z.spread * math.Pow(z.eta*u-z.eta+1.0, z.alpha))
	}
	return min(k, z.keySpace-1)
}

// GenerateZipfInt returns n Zipf-distributed keys in [0, keySpace). The same
// seed always yields the same sequence.
func GenerateZipfInt(n, keySpace int, theta float64, seed uint64) []int {
	z := NewZipf(keySpace, theta, seed)
	keys := make([]int, n)
	for i := range keys {
		keys[i] = z.Next()
	}
	return keys
}

func computeZeta(n uint64, theta float64) float64 {
	sum := 0.0
	for i := uint64(1); i <= n; i++ {
		sum += 1.0 / math.Pow(float64(i), theta)
	}
	return sum
}
