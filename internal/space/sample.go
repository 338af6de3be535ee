package space

import (
	"math/rand"

	"golang.org/x/exp/constraints"
)

// Sampler draws random configurations from a Space.
//
// A Sampler owns its random source: construct one per search run and do not
// share across searches. Sampling with the same seed over the same space
// yields the same configuration sequence.
//
// Not safe for concurrent use; the engine samples all of a bracket's
// configurations up front, before trials fan out.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded with seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws one configuration, assigning every parameter a uniformly
// random valid value in declaration order.
func (s *Sampler) Sample(sp *Space) Configuration {
	vals := make(map[string]Value, sp.Len())
	for _, p := range sp.params {
		vals[p.Name] = s.sampleParam(p)
	}
	return NewConfiguration(vals)
}

// sampleParam draws one value for a single declaration.
func (s *Sampler) sampleParam(p Param) Value {
	switch p.Kind {
	case KindChoice:
		return p.Values[uniform(s.rng, 0, len(p.Values)-1)]
	default:
		idx := uniform(s.rng, int64(0), p.gridSize()-1)
		return Int(p.Min + idx*p.step())
	}
}

// uniform returns a uniformly random integer in [min, max], inclusive.
// Generic so both grid indices (int64) and slice indices (int) use the
// same draw path.
func uniform[T constraints.Integer](rng *rand.Rand, min, max T) T {
	if min >= max {
		return min
	}
	return min + T(rng.Int63n(int64(max-min)+1))
}
