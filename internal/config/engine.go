package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/matching"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/pricing"
)

// EngineConfig carries the tunable parts of the engine: the matcher's
// confidence weights and acceptance threshold, and the fee schedule. Both
// the matcher and the dashboard gate read the same Matching block, so the
// threshold cannot drift between them.
type EngineConfig struct {
	Matching matching.Config `yaml:"matching" validate:"required"`
	Pricing  pricing.Config  `yaml:"pricing" validate:"required"`
}

// DefaultEngineConfig returns the production tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Matching: matching.DefaultConfig(),
		Pricing:  pricing.DefaultConfig(),
	}
}

// LoadEngineConfig reads and validates engine tuning from a yaml file.
// A missing file is not an error: defaults are returned.
func LoadEngineConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultEngineConfig(), nil
	}
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read engine config: %w", err)
	}

	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine config: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("invalid engine config: %w", err)
	}
	return cfg, nil
}
