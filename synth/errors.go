/*
errors.go - Centralized error types for the synthesis engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stage packages wrap these errors with file/row context.

ERROR CATEGORIES:
  1. Fatal input errors - InputMissing, DataError (the run aborts, nothing is written)
  2. Recovered conditions - ConfigInconsistency, CapacityViolation (counted, logged)
  3. Configuration errors - InvalidConfig (profile rejected by the factory)
  4. Store errors - run/artifact lookups and duplicate snapshots

USAGE:
  if errors.Is(err, synth.ErrDataError) {
      var de *synth.DataError
      errors.As(err, &de) // de.File, de.Row, de.Column
  }

SEE ALSO:
  - diagnostics.go: Collects the recovered conditions of a run
  - tabular/reader.go: Produces InputMissing and DataError
*/
package synth

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInputMissing is returned when a source table does not exist.
	ErrInputMissing = errors.New("input missing")

	// ErrDataError is returned when a field of the source table cannot be used.
	ErrDataError = errors.New("data error")

	// ErrConfigInconsistency marks a category absent from the category table.
	// It is recovered with a default and never returned from a run.
	ErrConfigInconsistency = errors.New("config inconsistency")

	// ErrCapacityViolation marks min_displays > max_displays before clamping.
	// It is recovered by clamping and never returned from a run.
	ErrCapacityViolation = errors.New("capacity violation")

	// ErrInvalidConfig is returned when a profile or stage config is malformed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRunNotFound is returned when a run snapshot does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrArtifactNotFound is returned when a run has no artifact with that name.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrDuplicateRun is returned when a snapshot with the same run id exists.
	// Snapshots are immutable, a run is never overwritten.
	ErrDuplicateRun = errors.New("duplicate run id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InputMissingError names the table that could not be opened.
type InputMissingError struct {
	Path string
	Err  error
}

func (e *InputMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input missing: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("input missing: %s", e.Path)
}

func (e *InputMissingError) Unwrap() error {
	return ErrInputMissing
}

// DataError names the cell that could not be used. Row 0 means the error is
// about the table as a whole (e.g. zero total sales).
type DataError struct {
	File   string
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *DataError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", loc, e.Row)
	}
	if e.Column != "" {
		return fmt.Sprintf("data error: %s column %s: %s (value %q)", loc, e.Column, e.Reason, e.Value)
	}
	return fmt.Sprintf("data error: %s: %s", loc, e.Reason)
}

func (e *DataError) Unwrap() error {
	return ErrDataError
}

// ConfigInconsistency records a category missing from the category table and
// the default that was used instead.
type ConfigInconsistency struct {
	Category string
	Product  string
	Row      int
	Default  string
}

func (e ConfigInconsistency) Error() string {
	return fmt.Sprintf("category %q of %q (row %d) is not in the category table, using %s",
		e.Category, e.Product, e.Row, e.Default)
}

func (e ConfigInconsistency) Unwrap() error {
	return ErrConfigInconsistency
}

// CapacityViolation records a product whose computed min_displays exceeded
// max_displays. Min is the value before clamping.
type CapacityViolation struct {
	Product string
	Row     int
	Min     int
	Max     int
}

func (e CapacityViolation) Error() string {
	return fmt.Sprintf("min_displays %d > max_displays %d for %q (row %d), clamped",
		e.Min, e.Max, e.Product, e.Row)
}

func (e CapacityViolation) Unwrap() error {
	return ErrCapacityViolation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDataError) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInputMissing)
}

// IsNotFound returns true if the error indicates a missing stored resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrArtifactNotFound)
}
