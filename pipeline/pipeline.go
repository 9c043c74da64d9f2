/*
Package pipeline runs one complete synthesis.

PURPOSE:
  A run turns a product table, a profile and a seed into the five optimizer
  artifacts. The Runner wires the stages together, encodes every artifact in
  memory and only then hands them to the caller (and the run store), so a
  failed run never leaves partial output behind.

DATA FLOW:
    products --> params.Engine --> fees.Generator --> attach --> linker.Linker
                                                                     |
    profile.Environment --> layout.Generator ------------------------+--> artifacts

  The product branch and the environment branch run concurrently. Only the
  product branch consumes randomness, so their interleaving never changes the
  output.

RANDOM STREAM ORDER (one Source per run, seeded from the run seed):
  1. Minimum display draws (skewed_draw policy only), in product order
  2. Fee draws, levels outer, products inner

DIAGNOSTICS:
  Recovered conditions (unmapped categories, clamped capacities, zeroed fee
  rows) are logged at WARN and counted on the run record. The linker reads
  the same category table as the parameter engine, so its unmapped
  categories are already reported and are not counted twice.

SEE ALSO:
  - synth/random.go: Source
  - tabular/writer.go: Artifact encoders
  - synth/store.go: RunStore
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/warp/shelf-engine/catalog"
	"github.com/warp/shelf-engine/factory"
	"github.com/warp/shelf-engine/fees"
	"github.com/warp/shelf-engine/layout"
	"github.com/warp/shelf-engine/linker"
	"github.com/warp/shelf-engine/logging"
	"github.com/warp/shelf-engine/params"
	"github.com/warp/shelf-engine/synth"
	"github.com/warp/shelf-engine/tabular"
)

// Input is everything a run depends on.
type Input struct {
	Products []synth.Product
	// HasSupplier writes the Supplier column into the parameter table.
	HasSupplier bool
	SourceName  string

	Profile *synth.Profile
	Seed    uint64
}

// Result is the outcome of a successful run.
type Result struct {
	Run         synth.Run
	Rows        []synth.ParameterRow
	Aggregates  params.Aggregates
	Environment *layout.Environment
	Supplement  []synth.SupplementRow
	Diagnostics synth.Diagnostics
	Artifacts   []synth.Artifact
}

// Artifact returns the named artifact of the result.
func (r *Result) Artifact(name string) (synth.Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return synth.Artifact{}, false
}

// Runner executes runs. A nil store disables persistence.
type Runner struct {
	log   logging.Logger
	store synth.RunStore
	now   func() time.Time
	newID func() synth.RunID
}

// NewRunner creates a runner.
func NewRunner(log logging.Logger, store synth.RunStore) *Runner {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Runner{
		log:   log.Named("pipeline"),
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() synth.RunID { return synth.RunID(uuid.New().String()) },
	}
}

// Run executes a full synthesis and persists it when a store is configured.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	if in.Profile == nil {
		return nil, fmt.Errorf("run needs a profile: %w", synth.ErrInvalidConfig)
	}
	if err := factory.Validate(in.Profile); err != nil {
		return nil, err
	}
	table, err := catalog.NewTable(in.Profile.Categories)
	if err != nil {
		return nil, err
	}

	start := r.now()
	runID := r.newID()
	log := r.log.With(
		logging.String("run_id", string(runID)),
		logging.String("profile", in.Profile.Name),
		logging.Uint64("seed", in.Seed),
	)
	log.Info("run started",
		logging.String("source", in.SourceName),
		logging.Int("products", len(in.Products)))

	res := &Result{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.productBranch(gctx, in, table, res)
	})
	g.Go(func() error {
		env, err := layout.NewGenerator(in.Profile.Environment).Generate()
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}
		res.Environment = env
		return nil
	})
	if err := g.Wait(); err != nil {
		attachSource(err, in.SourceName)
		log.Error("run failed", logging.Err(err))
		return nil, err
	}

	log.Info("aggregates computed",
		logging.Float64("total_sales", res.Aggregates.TotalSales),
		logging.Float64("median_sales", res.Aggregates.MedianSales))
	logDiagnostics(log, res.Diagnostics)

	artifacts, err := encodeAll(in, res)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts

	profileJSON, err := factory.NewProfileFactory().EncodeProfile(in.Profile)
	if err != nil {
		return nil, err
	}
	res.Run = synth.Run{
		ID:                    runID,
		ProfileName:           in.Profile.Name,
		ProfileJSON:           string(profileJSON),
		Seed:                  in.Seed,
		SourceName:            in.SourceName,
		Products:              len(res.Rows),
		Shelves:               len(res.Environment.Shelves),
		Levels:                in.Profile.Fees.Quality.Len(),
		CapacityViolations:    len(res.Diagnostics.Violations),
		ConfigInconsistencies: len(res.Diagnostics.Inconsistencies),
		ZeroedFeeRows:         res.Diagnostics.ZeroedFeeRows,
		CreatedAt:             start,
	}

	if r.store != nil {
		if err := r.store.SaveRun(ctx, res.Run, res.Artifacts); err != nil {
			log.Error("failed to persist run", logging.Err(err))
			return nil, fmt.Errorf("persist run %s: %w", runID, err)
		}
	}

	log.Info("run finished",
		logging.Int("shelves", res.Run.Shelves),
		logging.Duration("elapsed", r.now().Sub(start)))
	return res, nil
}

// productBranch computes parameters, fees and the supplement into res.
func (r *Runner) productBranch(ctx context.Context, in Input, table *catalog.Table, res *Result) error {
	src := synth.NewSource(in.Seed)
	p := in.Profile

	computed, err := params.NewEngine(p.Params, table).Compute(ctx, in.Products, src)
	if err != nil {
		return err
	}

	feeTable, zeroed, err := fees.NewGenerator(p.Fees).GenerateFor(in.Products, src)
	if err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	if err := feeTable.Attach(computed.Rows); err != nil {
		return err
	}

	supplement, _ := linker.New(table, p.Link).Link(in.Products)

	res.Rows = computed.Rows
	res.Aggregates = computed.Aggregates
	res.Diagnostics = computed.Diagnostics
	res.Diagnostics.ZeroedFeeRows = zeroed
	res.Supplement = supplement
	return nil
}

// =============================================================================
// STANDALONE STAGES
// =============================================================================

// Environment generates and encodes the environment artifacts of a profile.
func (r *Runner) Environment(profile *synth.Profile) ([]synth.Artifact, error) {
	env, err := layout.NewGenerator(profile.Environment).Generate()
	if err != nil {
		return nil, err
	}
	r.log.Info("environment generated",
		logging.String("profile", profile.Name),
		logging.Int("shelves", len(env.Shelves)))
	return encodeEnvironment(env)
}

// Link builds the supplement artifact for products read back from a
// processed parameter table.
func (r *Runner) Link(profile *synth.Profile, products []synth.Product) (synth.Artifact, synth.Diagnostics, error) {
	table, err := catalog.NewTable(profile.Categories)
	if err != nil {
		return synth.Artifact{}, synth.Diagnostics{}, err
	}
	rows, diag := linker.New(table, profile.Link).Link(products)
	logDiagnostics(r.log.With(logging.String("profile", profile.Name)), diag)

	data, err := tabular.EncodeSupplement(rows)
	if err != nil {
		return synth.Artifact{}, diag, err
	}
	return synth.Artifact{Name: tabular.ArtifactSupplement, Content: data}, diag, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func encodeAll(in Input, res *Result) ([]synth.Artifact, error) {
	processed, err := tabular.EncodeParameters(res.Rows, in.Profile.Fees.Quality.Len(), in.HasSupplier)
	if err != nil {
		return nil, err
	}
	env, err := encodeEnvironment(res.Environment)
	if err != nil {
		return nil, err
	}
	supplement, err := tabular.EncodeSupplement(res.Supplement)
	if err != nil {
		return nil, err
	}

	out := []synth.Artifact{{Name: tabular.ArtifactParameters, Content: processed}}
	out = append(out, env...)
	return append(out, synth.Artifact{Name: tabular.ArtifactSupplement, Content: supplement}), nil
}

func encodeEnvironment(env *layout.Environment) ([]synth.Artifact, error) {
	shelves, err := tabular.EncodeShelves(env.Shelves)
	if err != nil {
		return nil, err
	}
	distances, err := tabular.EncodeDistances(env.Distances)
	if err != nil {
		return nil, err
	}
	scalars, err := tabular.EncodeScalars(env.Scalars)
	if err != nil {
		return nil, err
	}
	return []synth.Artifact{
		{Name: tabular.ArtifactShelves, Content: shelves},
		{Name: tabular.ArtifactDistances, Content: distances},
		{Name: tabular.ArtifactScalars, Content: scalars},
	}, nil
}

func logDiagnostics(log logging.Logger, d synth.Diagnostics) {
	for _, inc := range d.Inconsistencies {
		log.Warn("category not in category table",
			logging.String("category", inc.Category),
			logging.String("product", inc.Product),
			logging.Int("row", inc.Row),
			logging.String("default", inc.Default))
	}
	for _, v := range d.Violations {
		log.Warn("min displays clamped to max displays",
			logging.String("product", v.Product),
			logging.Int("row", v.Row),
			logging.Int("min", v.Min),
			logging.Int("max", v.Max))
	}
	if d.ZeroedFeeRows > 0 {
		log.Info("no-brand fees zeroed", logging.Int("rows", d.ZeroedFeeRows))
	}
}

// attachSource names the source table on data errors raised past the reader.
func attachSource(err error, name string) {
	if name == "" {
		return
	}
	var de *synth.DataError
	if errors.As(err, &de) && de.File == "" {
		de.File = name
	}
}
