package synth

import (
	"fmt"
	"math"
)

// DistanceMatrix is a dense, row-major n×n matrix of shelf-to-shelf distances.
// Entries are derived from true coordinates, so the matrix is symmetric with
// an exact zero diagonal.
type DistanceMatrix struct {
	n    int
	data []float64
}

// NewDistanceMatrix computes the pairwise Euclidean distances of points.
// Only the upper triangle is computed; the lower one is mirrored.
func NewDistanceMatrix(points []Point) *DistanceMatrix {
	n := len(points)
	m := &DistanceMatrix{n: n, data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y)
			m.data[i*n+j] = d
			m.data[j*n+i] = d
		}
	}
	return m
}

// Size returns n.
func (m *DistanceMatrix) Size() int { return m.n }

// At returns entry (i, j).
func (m *DistanceMatrix) At(i, j int) (float64, error) {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		return 0, fmt.Errorf("distance matrix index (%d,%d) out of range for size %d", i, j, m.n)
	}
	return m.data[i*m.n+j], nil
}

// Row returns a copy of row i.
func (m *DistanceMatrix) Row(i int) []float64 {
	row := make([]float64, m.n)
	copy(row, m.data[i*m.n:(i+1)*m.n])
	return row
}

// Validate checks symmetry, the zero diagonal and non-negativity.
func (m *DistanceMatrix) Validate() error {
	for i := 0; i < m.n; i++ {
		if m.data[i*m.n+i] != 0 {
			return fmt.Errorf("distance matrix diagonal (%d,%d) = %v", i, i, m.data[i*m.n+i])
		}
		for j := i + 1; j < m.n; j++ {
			a, b := m.data[i*m.n+j], m.data[j*m.n+i]
			if a != b {
				return fmt.Errorf("distance matrix asymmetric at (%d,%d): %v != %v", i, j, a, b)
			}
			if a < 0 || math.IsNaN(a) {
				return fmt.Errorf("distance matrix entry (%d,%d) invalid: %v", i, j, a)
			}
		}
	}
	return nil
}
