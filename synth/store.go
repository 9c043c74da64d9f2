/*
store.go - Persistence interface for run snapshots

PURPOSE:
  A run produces five immutable CSV artifacts. The RunStore keeps them
  together with the seed and the encoded profile that produced them, so any
  snapshot can be served again or reproduced byte-for-byte later.

APPEND-ONLY CONTRACT:
  - SaveRun(): writes the run record and all its artifacts atomically
  - NO Update() or Delete() methods exist
  - Saving an existing run id fails with ErrDuplicateRun

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - synth/store/memory.go: In-memory for testing

SEE ALSO:
  - pipeline/pipeline.go: Persists a run when a store is configured
  - api/handlers.go: Serves stored runs and artifacts
*/
package synth

import (
	"context"
	"time"
)

// =============================================================================
// RUN SNAPSHOT
// =============================================================================

type RunID string

// Run is the metadata of one synthesis run.
type Run struct {
	ID          RunID
	ProfileName string
	ProfileJSON string
	Seed        uint64
	SourceName  string

	Products              int
	Shelves               int
	Levels                int
	CapacityViolations    int
	ConfigInconsistencies int
	ZeroedFeeRows         int

	CreatedAt time.Time
}

// Artifact is one CSV file produced by a run.
type Artifact struct {
	Name    string
	Content []byte
}

// =============================================================================
// STORE - Interface for run persistence (append-only)
// =============================================================================

// RunStore persists run snapshots.
// IMPORTANT: RunStore is APPEND-ONLY. Snapshots are never modified.
type RunStore interface {
	// SaveRun persists the run and its artifacts atomically.
	SaveRun(ctx context.Context, run Run, artifacts []Artifact) error

	// GetRun returns the run or ErrRunNotFound.
	GetRun(ctx context.Context, id RunID) (*Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// ListArtifacts returns the artifact names of a run in creation order.
	ListArtifacts(ctx context.Context, id RunID) ([]string, error)

	// GetArtifact returns one artifact or ErrArtifactNotFound.
	GetArtifact(ctx context.Context, id RunID, name string) (*Artifact, error)
}
