// Package config provides process configuration loading, defaults, and
// validation for the shelf synthesis binaries. Run profiles are not process
// configuration; they live in the factory and profiles packages.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/shelf-engine/logging"
)

// Config is the root configuration of both binaries.
type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Store  StoreConfig    `mapstructure:"store"`
	Log    logging.Config `mapstructure:"log"`
	Run    RunConfig      `mapstructure:"run"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// AllowedOrigins lists CORS origins. Empty allows every origin.
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// StoreConfig locates the SQLite run store.
type StoreConfig struct {
	// Path is a file path or ":memory:".
	Path string `mapstructure:"path"`
}

// RunConfig holds the defaults of a batch run.
type RunConfig struct {
	// Profile names a preset. ProfileFile, when set, is used instead.
	Profile     string `mapstructure:"profile"`
	ProfileFile string `mapstructure:"profile_file"`
	Seed        uint64 `mapstructure:"seed"`
	Input       string `mapstructure:"input"`
	OutputDir   string `mapstructure:"output_dir"`
	// Workers overrides the profile's parameter workers when > 0.
	Workers int `mapstructure:"workers"`
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("config: server timeouts must be ≥ 0")
	}

	// Store
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("config: store.path is required")
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Run
	if c.Run.Profile == "" && c.Run.ProfileFile == "" {
		return fmt.Errorf("config: run.profile or run.profile_file is required")
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("config: run.workers must be ≥ 0, got %d", c.Run.Workers)
	}
	if c.Run.OutputDir == "" {
		return fmt.Errorf("config: run.output_dir is required")
	}
	return nil
}
