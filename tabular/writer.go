package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/warp/shelf-engine/synth"
)

// Artifact file names, read by the optimizer and the plotting tools.
const (
	ArtifactParameters = "processed_optimization_data.csv"
	ArtifactShelves    = "env_shelves.csv"
	ArtifactDistances  = "env_distance_matrix.csv"
	ArtifactScalars    = "env_scalars.csv"
	ArtifactSupplement = "env_product_supplement.csv"
)

// ArtifactNames lists every artifact of a full run in write order.
var ArtifactNames = []string{
	ArtifactParameters,
	ArtifactShelves,
	ArtifactDistances,
	ArtifactScalars,
	ArtifactSupplement,
}

// fixedPlaces is the number of digits written for fees and DIST_b.
const fixedPlaces = 2

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func encode(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header != nil {
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write CSV rows: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeParameters encodes the processed parameter table. Every row must
// carry levels fees. The Supplier column is written when withSupplier is set.
func EncodeParameters(rows []synth.ParameterRow, levels int, withSupplier bool) ([]byte, error) {
	header := []string{ColProductName, ColCategory}
	if withSupplier {
		header = append(header, ColSupplier)
	}
	header = append(header, "rho", "delta", "iota", "zeta", "mu", "min_l", "max_v")
	for k := 1; k <= levels; k++ {
		header = append(header, fmt.Sprintf("omega_level_%d", k), fmt.Sprintf("omega_prime_level_%d", k))
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		if len(r.Fees) != levels {
			return nil, fmt.Errorf("product %q has %d fee levels, want %d", r.Product.Name, len(r.Fees), levels)
		}
		rec := []string{r.Product.Name, r.Product.Category}
		if withSupplier {
			rec = append(rec, r.Product.Supplier)
		}
		rec = append(rec,
			r.Profit.String(),
			formatFloat(r.DemandShare),
			formatFloat(r.ImpulseWeight),
			formatFloat(r.ShelfFootprint),
			strconv.Itoa(r.UnitsPerDisplay),
			strconv.Itoa(r.MinDisplays),
			strconv.Itoa(r.MaxDisplays),
		)
		for _, f := range r.Fees {
			rec = append(rec, f.LevelFee.StringFixed(fixedPlaces), f.TrafficFee.StringFixed(fixedPlaces))
		}
		out[i] = rec
	}
	return encode(header, out)
}

// EncodeShelves encodes the shelf table.
func EncodeShelves(shelves []synth.Shelf) ([]byte, error) {
	header := []string{"Shelf_ID", "Type", "X", "Y", "Width_W", "Levels_N", "DIST_b", "is_high_demand"}
	out := make([][]string, len(shelves))
	for i, s := range shelves {
		out[i] = []string{
			strconv.Itoa(s.ID),
			string(s.Type),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Width),
			strconv.Itoa(s.Levels),
			strconv.FormatFloat(s.DistanceFromEntrance, 'f', fixedPlaces, 64),
			flag(s.HighDemand),
		}
	}
	return encode(header, out)
}

// EncodeDistances encodes the distance matrix without a header.
func EncodeDistances(m *synth.DistanceMatrix) ([]byte, error) {
	out := make([][]string, m.Size())
	for i := range out {
		row := m.Row(i)
		rec := make([]string, len(row))
		for j, d := range row {
			rec[j] = formatFloat(d)
		}
		out[i] = rec
	}
	return encode(nil, out)
}

// EncodeScalars encodes the global scalar table.
func EncodeScalars(scalars []synth.Scalar) ([]byte, error) {
	out := make([][]string, len(scalars))
	for i, s := range scalars {
		out[i] = []string{s.Key, formatFloat(s.Value)}
	}
	return encode([]string{"Key", "Value"}, out)
}

// EncodeSupplement encodes the product-environment supplement.
func EncodeSupplement(rows []synth.SupplementRow) ([]byte, error) {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.ProductName, string(r.Storage), flag(r.Essential)}
	}
	return encode([]string{ColProductName, "storage_type", "is_essential"}, out)
}

// WriteDir writes every artifact into dir, creating it if needed. Each file
// is written to a temporary name and renamed into place.
func WriteDir(dir string, artifacts []synth.Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, a.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", a.Name, err)
		}
	}
	return nil
}
