package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStorePath = "shelf.db"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultRunProfile = "grocery-baseline"
	DefaultRunSeed    = 42
	DefaultRunInput   = "cleaned_dataset.csv"
	DefaultOutputDir  = "."
)

// ApplyDefaults fills every zero-value field in cfg with its default. Fields
// already set by the caller are left unchanged. Seed is not touched because
// zero is a valid seed; it is defaulted through viper instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// ── Store ─────────────────────────────────────────────────────────────────
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	if cfg.Run.Profile == "" && cfg.Run.ProfileFile == "" {
		cfg.Run.Profile = DefaultRunProfile
	}
	if cfg.Run.Input == "" {
		cfg.Run.Input = DefaultRunInput
	}
	if cfg.Run.OutputDir == "" {
		cfg.Run.OutputDir = DefaultOutputDir
	}
}

// setViperDefaults registers every key with viper so that SHELF_* variables
// resolve during Unmarshal even when the key is absent from the file.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("run.profile", "")
	v.SetDefault("run.profile_file", "")
	v.SetDefault("run.seed", DefaultRunSeed)
	v.SetDefault("run.input", DefaultRunInput)
	v.SetDefault("run.output_dir", DefaultOutputDir)
	v.SetDefault("run.workers", 0)
}
