package synth

// Diagnostics collects the recovered conditions of a run. Entries are kept in
// product row order so two identical runs report identically.
type Diagnostics struct {
	Inconsistencies []ConfigInconsistency
	Violations      []CapacityViolation
	// ZeroedFeeRows counts products whose fees were zeroed by the no-brand policy.
	ZeroedFeeRows int
}

// Merge appends other's entries to d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Inconsistencies = append(d.Inconsistencies, other.Inconsistencies...)
	d.Violations = append(d.Violations, other.Violations...)
	d.ZeroedFeeRows += other.ZeroedFeeRows
}

// Empty reports whether nothing was recovered.
func (d Diagnostics) Empty() bool {
	return len(d.Inconsistencies) == 0 && len(d.Violations) == 0 && d.ZeroedFeeRows == 0
}
