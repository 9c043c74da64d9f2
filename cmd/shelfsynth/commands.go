package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/shelf-engine/factory"
	"github.com/warp/shelf-engine/logging"
	"github.com/warp/shelf-engine/pipeline"
	"github.com/warp/shelf-engine/profiles"
	"github.com/warp/shelf-engine/store/sqlite"
	"github.com/warp/shelf-engine/synth"
	"github.com/warp/shelf-engine/tabular"
)

// =============================================================================
// RUN COMMANDS
// =============================================================================

func (a *app) generateCmd() *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "generate [products.csv]",
		Short: "Write all five optimizer artifacts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.runPipeline(cmd.Context(), args, demo)
			if err != nil {
				return err
			}
			return a.write(cmd.OutOrStdout(), res, res.Artifacts)
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Use the embedded demo catalog")
	return cmd
}

func (a *app) paramsCmd() *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "params [products.csv]",
		Short: "Write the processed parameter table only",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.runPipeline(cmd.Context(), args, demo)
			if err != nil {
				return err
			}
			processed, _ := res.Artifact(tabular.ArtifactParameters)
			return a.write(cmd.OutOrStdout(), res, []synth.Artifact{processed})
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Use the embedded demo catalog")
	return cmd
}

func (a *app) envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Write the shelf table, distance matrix and scalar table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.loadProfile()
			if err != nil {
				return err
			}
			artifacts, err := pipeline.NewRunner(a.log, nil).Environment(profile)
			if err != nil {
				return err
			}
			return a.write(cmd.OutOrStdout(), nil, artifacts)
		},
	}
}

func (a *app) linkCmd() *cobra.Command {
	var processed string
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Write the product-environment supplement for a processed table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.loadProfile()
			if err != nil {
				return err
			}
			products, err := tabular.ReadProcessed(processed)
			if err != nil {
				return err
			}
			artifact, diag, err := pipeline.NewRunner(a.log, nil).Link(profile, products)
			if err != nil {
				return err
			}
			if err := a.write(cmd.OutOrStdout(), nil, []synth.Artifact{artifact}); err != nil {
				return err
			}
			if n := len(diag.Inconsistencies); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "unmapped categories: %d (stored as %s)\n", n, synth.StorageStandard)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&processed, "processed", tabular.ArtifactParameters, "Processed parameter table")
	return cmd
}

// runPipeline reads the products and executes a full run, persisting it
// when --store is set.
func (a *app) runPipeline(ctx context.Context, args []string, demo bool) (*pipeline.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	profile, err := a.loadProfile()
	if err != nil {
		return nil, err
	}

	var (
		table  *tabular.ProductTable
		source string
	)
	switch {
	case demo && len(args) > 0:
		return nil, fmt.Errorf("--demo and an input file are exclusive: %w", synth.ErrInvalidConfig)
	case demo:
		source = profiles.DemoProductsName
		table, err = tabular.DecodeProducts(bytes.NewReader(profiles.DemoProducts()), source)
	default:
		source = a.cfg.Run.Input
		if len(args) == 1 {
			source = args[0]
		}
		table, err = tabular.ReadProducts(source)
	}
	if err != nil {
		return nil, err
	}

	var store synth.RunStore
	if a.persist {
		db, err := sqlite.New(a.cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		defer db.Close()
		store = db
	}

	return pipeline.NewRunner(a.log, store).Run(ctx, pipeline.Input{
		Products:    table.Products,
		HasSupplier: table.HasSupplier,
		SourceName:  source,
		Profile:     profile,
		Seed:        a.cfg.Run.Seed,
	})
}

// loadProfile resolves the configured profile file or preset.
func (a *app) loadProfile() (*synth.Profile, error) {
	var (
		doc []byte
		err error
	)
	if a.cfg.Run.ProfileFile != "" {
		doc, err = os.ReadFile(a.cfg.Run.ProfileFile)
		if err != nil {
			return nil, &synth.InputMissingError{Path: a.cfg.Run.ProfileFile, Err: err}
		}
	} else {
		doc, err = profiles.Lookup(a.cfg.Run.Profile)
		if err != nil {
			return nil, err
		}
	}

	profile, err := factory.NewProfileFactory().ParseProfile(doc)
	if err != nil {
		return nil, err
	}
	if a.cfg.Run.Workers > 0 {
		profile.Params.Workers = a.cfg.Run.Workers
	}
	return profile, nil
}

// write stores artifacts in the output directory and prints a summary.
func (a *app) write(out io.Writer, res *pipeline.Result, artifacts []synth.Artifact) error {
	dir := a.cfg.Run.OutputDir
	if err := tabular.WriteDir(dir, artifacts); err != nil {
		return err
	}
	a.log.Info("artifacts written",
		logging.String("dir", dir),
		logging.Int("files", len(artifacts)))

	if res != nil {
		r := res.Run
		fmt.Fprintf(out, "run %s  profile=%s seed=%d products=%d\n", r.ID, r.ProfileName, r.Seed, r.Products)
		fmt.Fprintf(out, "diagnostics: config_inconsistencies=%d capacity_violations=%d zeroed_fee_rows=%d\n",
			r.ConfigInconsistencies, r.CapacityViolations, r.ZeroedFeeRows)
	}
	for _, art := range artifacts {
		fmt.Fprintf(out, "wrote %s (%d bytes)\n", art.Name, len(art.Content))
	}
	return nil
}

// =============================================================================
// PROFILE COMMANDS
// =============================================================================

func (a *app) profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect preset profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List preset profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf := factory.NewProfileFactory()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMARGIN\tIMPULSE\tMIN DISPLAYS\tNO-BRAND")
			for _, name := range profiles.Names() {
				doc, err := profiles.Lookup(name)
				if err != nil {
					return err
				}
				p, err := pf.ParseProfile(doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.Name, p.Params.MarginRate,
					p.Params.Impulse.Policy, p.Params.Display.MinPolicy, len(p.Fees.NoBrandSuppliers))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Print the canonical JSON of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := profiles.Lookup(args[0])
			if err != nil {
				return err
			}
			pf := factory.NewProfileFactory()
			p, err := pf.ParseProfile(doc)
			if err != nil {
				return err
			}
			canonical, err := pf.EncodeProfile(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(canonical))
			return err
		},
	})
	return cmd
}
