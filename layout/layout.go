/*
Package layout synthesizes the store's spatial environment.

PURPOSE:
  Places every shelf of a synthetic store in the 2-D plane, with the single
  entrance at the origin, and derives what the optimizer needs from the
  geometry: distance from the entrance, the full shelf-to-shelf distance
  matrix and the global scalars. No randomness is involved; the same config
  always yields the same environment.

GEOMETRY (ids assigned in this order, starting at 1):
  1. Standard block: for aisle a = 1..Aisles (x = a * AisleSpacing) and depth
     s = 1..Depths (y = s * DepthSpacing), two facing units at x and
     x + PairOffset
  2. Fridges along the back wall: y = Fridges.Along, x = Start + k * Step
  3. Freezers along the side wall: x = Freezers.Along, y = Start + k * Step

HIGH-DEMAND RULE:
  - Standard: the first and last depth of every aisle (aisle endcaps)
  - Fridge: the centre third of the run, indices [n/3, 2n/3)
  - Freezer: the unit nearest the front, index 0

SEE ALSO:
  - synth/matrix.go: DistanceMatrix
  - scalars.go: Global scalar table
*/
package layout

import (
	"fmt"
	"math"

	"github.com/warp/shelf-engine/synth"
)

// MaxShelves bounds the number of shelves of one layout.
const MaxShelves = 10000

// Environment is the complete generated store.
type Environment struct {
	Shelves   []synth.Shelf
	Distances *synth.DistanceMatrix
	Scalars   []synth.Scalar
}

// Generator builds environments for one EnvironmentConfig.
type Generator struct {
	cfg synth.EnvironmentConfig
}

func NewGenerator(cfg synth.EnvironmentConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Validate checks the layout and scalar configuration.
func (g *Generator) Validate() error {
	l := g.cfg.Layout
	if l.Aisles < 0 || l.Depths < 0 || l.Fridges.Count < 0 || l.Freezers.Count < 0 {
		return fmt.Errorf("layout counts must not be negative: %w", synth.ErrInvalidConfig)
	}
	for _, n := range []int{l.Aisles, l.Depths, l.Fridges.Count, l.Freezers.Count} {
		if n > MaxShelves {
			return fmt.Errorf("layout count %d exceeds %d shelves: %w", n, MaxShelves, synth.ErrInvalidConfig)
		}
	}
	total := shelfCount(l)
	if total == 0 {
		return fmt.Errorf("layout has no shelves: %w", synth.ErrInvalidConfig)
	}
	if total > MaxShelves {
		return fmt.Errorf("layout has %d shelves, more than %d: %w", total, MaxShelves, synth.ErrInvalidConfig)
	}
	if l.ShelfWidth <= 0 || l.Levels <= 0 {
		return fmt.Errorf("shelf width %v and levels %d must be positive: %w", l.ShelfWidth, l.Levels, synth.ErrInvalidConfig)
	}
	if g.cfg.DailyCustomers < 0 {
		return fmt.Errorf("daily customers %d is negative: %w", g.cfg.DailyCustomers, synth.ErrInvalidConfig)
	}
	if err := g.cfg.LevelImpulse.Validate(); err != nil {
		return fmt.Errorf("level impulse multipliers: %w", err)
	}
	if g.cfg.LevelImpulse.Len() != l.Levels {
		return fmt.Errorf("%d impulse multipliers for %d shelf levels: %w",
			g.cfg.LevelImpulse.Len(), l.Levels, synth.ErrInvalidConfig)
	}
	return nil
}

// Generate builds the shelves, the distance matrix and the scalars.
func (g *Generator) Generate() (*Environment, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	shelves := g.Shelves()
	points := make([]synth.Point, len(shelves))
	for i, s := range shelves {
		points[i] = s.Point()
	}
	return &Environment{
		Shelves:   shelves,
		Distances: synth.NewDistanceMatrix(points),
		Scalars:   g.Scalars(),
	}, nil
}

// Shelves places every shelf. The config is assumed valid.
func (g *Generator) Shelves() []synth.Shelf {
	l := g.cfg.Layout
	shelves := make([]synth.Shelf, 0, shelfCount(l))

	add := func(t synth.StorageType, x, y float64, high bool) {
		shelves = append(shelves, synth.Shelf{
			ID:                   len(shelves) + 1,
			Type:                 t,
			X:                    x,
			Y:                    y,
			Width:                l.ShelfWidth,
			Levels:               l.Levels,
			DistanceFromEntrance: math.Hypot(x, y),
			HighDemand:           high,
		})
	}

	for a := 1; a <= l.Aisles; a++ {
		x := float64(a) * l.AisleSpacing
		for s := 1; s <= l.Depths; s++ {
			y := float64(s) * l.DepthSpacing
			endcap := s == 1 || s == l.Depths
			add(synth.StorageStandard, x, y, endcap)
			add(synth.StorageStandard, x+l.PairOffset, y, endcap)
		}
	}

	n := l.Fridges.Count
	for k := 0; k < n; k++ {
		x := l.Fridges.Start + float64(k)*l.Fridges.Step
		add(synth.StorageFridge, x, l.Fridges.Along, k >= n/3 && k < 2*n/3)
	}

	for k := 0; k < l.Freezers.Count; k++ {
		y := l.Freezers.Start + float64(k)*l.Freezers.Step
		add(synth.StorageFreezer, l.Freezers.Along, y, k == 0)
	}

	return shelves
}

// shelfCount is the number of shelves a layout places. Each count must be at
// most MaxShelves so the product cannot overflow.
func shelfCount(l synth.LayoutConfig) int {
	return l.Aisles*l.Depths*2 + l.Fridges.Count + l.Freezers.Count
}
