package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

// DefaultRuns is the number of simulations when a scenario does not say
const DefaultRuns = 1000

// Scenario is a YAML-described experiment: one panel configuration, optional appeals
type Scenario struct {
	Name            string               `yaml:"name"`
	Runs            int                  `yaml:"runs"`
	Seed            *int64               `yaml:"seed"`
	Oracle          oracle.Config        `yaml:"oracle"`
	Appeals         *oracle.AppealConfig `yaml:"appeals"`
	RecordAllLevels bool                 `yaml:"record_all_levels"`
}

// LoadScenario reads and validates a scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if scenario.Name == "" {
		scenario.Name = path
	}
	return scenario, nil
}

// ParseScenario decodes YAML on top of the defaults and validates the result
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := &Scenario{
		Runs:   DefaultRuns,
		Oracle: oracle.DefaultConfig(),
	}
	if err := yaml.Unmarshal(data, scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
	}

	scenario.Oracle = scenario.Oracle.Normalize()
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Validate checks the oracle, appeal and run settings
func (s *Scenario) Validate() error {
	if err := s.Oracle.Validate(); err != nil {
		return err
	}
	if s.Appeals != nil {
		if err := s.Appeals.ValidateFor(s.Oracle.NumJurors); err != nil {
			return err
		}
	}
	if s.Runs < 1 {
		return fmt.Errorf("%w: runs must be >= 1, got %d", core.ErrInvalidRunCount, s.Runs)
	}
	return nil
}

// SeedOr returns the scenario seed, or fallback when the file leaves it unset
func (s *Scenario) SeedOr(fallback int64) int64 {
	if s.Seed == nil {
		return fallback
	}
	return *s.Seed
}
