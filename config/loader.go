package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings are layered, lowest precedence first: built-in defaults, the YAML
// file, SHELF_* environment variables. A nested key maps to its variable by
// replacing dots, so run.seed is SHELF_RUN_SEED.
const envPrefix = "SHELF"

// Load returns the validated configuration. path names an optional YAML file.
func Load(path string) (*Config, error) {
	v, err := layered(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// LoadFromEnv is Load without a file.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func layered(path string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
