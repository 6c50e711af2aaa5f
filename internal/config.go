package internal

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/reelhouse/reeld/internal/api"
	"github.com/reelhouse/reeld/internal/database"
	"github.com/reelhouse/reeld/internal/reel"
)

// ReeldConfig is the struct used to contain the
// various user config supplied by file, or
// manually inside the code.
type ReeldConfig struct {
	Reels    reel.Config             `yaml:"reels"`
	Database database.DatabaseConfig `yaml:"database" env-required:"true"`
	API      api.RestConfig          `yaml:"api"`
}

// LoadFromFile reads a YAML configuration file in to a ReeldConfig,
// applying any environment variable overrides defined by the structs
// env tags.
func (config *ReeldConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	return nil
}

// LoadFromEnv populates the config purely from the process environment,
// falling back to the env-default values where a variable is unset. Used
// when no config file has been provided (e.g. containerised deployments
// which configure everything via the environment).
func (config *ReeldConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	return nil
}
