package synth

import "math/rand/v2"

// sourceStream is the fixed PCG stream constant; only the seed varies per run.
const sourceStream uint64 = 0x5eed5e1f

// Source is the single random stream of a run. It is created once from the
// run seed and passed explicitly to every stage that draws. Source is not
// safe for concurrent use; stages draw from it sequentially.
//
// Consumption order within a run:
//  1. min-display draws (skewed policy only), one per product in row order
//  2. slotting fee draws, levels outer, products inner
type Source struct {
	seed  uint64
	r     *rand.Rand
	draws uint64
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) *Source {
	return &Source{seed: seed, r: rand.New(rand.NewPCG(seed, sourceStream))}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint64 { return s.seed }

// Draws returns how many values have been consumed.
func (s *Source) Draws() uint64 { return s.draws }

// Uniform returns a value in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	s.draws++
	return lo + s.r.Float64()*(hi-lo)
}

// Weighted returns one of choices, picked with probability proportional to
// weights. It consumes exactly one value. Callers validate that the slices
// have equal, non-zero length and positive total weight.
func (s *Source) Weighted(choices []int, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	u := s.Uniform(0, total)
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
