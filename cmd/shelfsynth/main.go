/*
main.go - Batch CLI entry point

PURPOSE:
  Runs the synthesis engine from the command line and writes the optimizer
  artifacts to a directory. Every run can optionally be persisted in the
  SQLite run store shared with the HTTP server.

COMMANDS:
  generate [products.csv]   All five artifacts
  params   [products.csv]   processed_optimization_data.csv only
  env                       Shelf table, distance matrix and scalars
  link --processed FILE     Product-environment supplement from a processed table
  profiles list             Preset names and their policies
  profiles show NAME        Canonical JSON of a preset

CONFIGURATION:
  Flags override SHELF_* environment variables, which override the YAML
  file given by --config. A .env file in the working directory is loaded
  first.

EXAMPLES:
  shelfsynth generate --demo --out ./out
  shelfsynth generate cleaned_dataset.csv --profile discount-demand-scaled --seed 7 --store
  shelfsynth link --processed processed_optimization_data.csv --profile private-label

SEE ALSO:
  - pipeline/pipeline.go: Run execution
  - config/loader.go: Configuration loading
  - cmd/server/main.go: HTTP server
*/
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/warp/shelf-engine/config"
	"github.com/warp/shelf-engine/logging"
)

// app holds the state shared by every command of one invocation.
type app struct {
	// flags
	configPath  string
	logLevel    string
	profile     string
	profileFile string
	seed        uint64
	outDir      string
	workers     int
	persist     bool

	cfg *config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shelfsynth",
		Short: "Synthesize shelf-space optimizer parameters and store environments",
		Long: `shelfsynth turns a product table into the parameter, shelf, distance,
scalar and supplement tables consumed by the shelf-space optimizer.
Identical inputs, profile and seed always produce byte-identical files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVarP(&a.profile, "profile", "p", "", "Preset profile name")
	flags.StringVar(&a.profileFile, "profile-file", "", "JSON profile file (overrides --profile)")
	flags.Uint64Var(&a.seed, "seed", 0, "Random seed (default from config, 42)")
	flags.StringVarP(&a.outDir, "out", "o", "", "Output directory")
	flags.IntVar(&a.workers, "workers", 0, "Goroutines for the parameter map (0 keeps the profile value)")
	flags.BoolVar(&a.persist, "store", false, "Persist the run in the SQLite run store")

	root.AddCommand(
		a.generateCmd(),
		a.paramsCmd(),
		a.envCmd(),
		a.linkCmd(),
		a.profilesCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("profile") {
		cfg.Run.Profile = a.profile
		cfg.Run.ProfileFile = ""
	}
	if flags.Changed("profile-file") {
		cfg.Run.ProfileFile = a.profileFile
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = a.seed
	}
	if flags.Changed("out") {
		cfg.Run.OutputDir = a.outDir
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = a.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "shelfsynth: %v\n", err)
		os.Exit(1)
	}
}
