package cmd

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/merge-sim/merge-sim/sim/env"
)

// loadScenarioConfig resolves the configuration for envID: the scenario
// defaults, overlaid with the YAML file at path when one is given. Unknown
// keys in the file are errors.
func loadScenarioConfig(envID, path string) (env.Config, error) {
	if !env.ValidEnvironments[envID] {
		return env.Config{}, fmt.Errorf("unknown environment %q; valid options: %s", envID, env.MergeEnvID)
	}
	cfg := env.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = env.LoadConfig(path, cfg); err != nil {
			return env.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return env.Config{}, fmt.Errorf("invalid scenario config: %w", err)
	}
	return cfg, nil
}

// writeDefaults prints the default scenario configuration as YAML.
func writeDefaults(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(env.DefaultConfig()); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	return enc.Close()
}
