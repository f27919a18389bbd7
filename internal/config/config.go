// Package config holds engine tuning defaults and a small YAML loader,
// mirroring funvibe-funxy/internal/config/constants.go's shape: exported
// constants plus pure helper functions, no package-level mutable state
// beyond what the teacher itself carries.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tuning values. A zero MaxStep/MaxFrame means unbounded, matching
// spec.md's unbounded engines; a config file only ever tightens these for
// experimentation or CI budgets.
const (
	DefaultConfirmPollInterval = 10 * time.Millisecond
	DefaultMaxStep             = int64(0)
	DefaultMaxFrame            = int64(0)
	DefaultCheckpointPath      = ""
	DefaultLogic               = "QF_UF"
)

// Config is the engine-tuning surface loadable from a YAML file.
type Config struct {
	// ConfirmPollIntervalMS is the k-induction confirm phase's idle-sleep
	// interval between event-bus polls, in milliseconds.
	ConfirmPollIntervalMS int64 `yaml:"confirm_poll_interval_ms"`
	// MaxStep bounds k-induction's step counter; 0 means unbounded.
	MaxStep int64 `yaml:"max_step"`
	// MaxFrame bounds IC3IA's frame count; 0 means unbounded (spec_full.md
	// §5.2's FrameBoundExceeded supplement).
	MaxFrame int64 `yaml:"max_frame"`
	// CheckpointPath, if non-empty, is the sqlite file internal/checkpoint
	// persists engine state to.
	CheckpointPath string `yaml:"checkpoint_path"`
	// Logic is the SMT-LIB logic string passed through to the solver
	// facade when nothing more specific is known.
	Logic string `yaml:"logic"`
}

// Default returns the built-in tuning defaults.
func Default() Config {
	return Config{
		ConfirmPollIntervalMS: DefaultConfirmPollInterval.Milliseconds(),
		MaxStep:               DefaultMaxStep,
		MaxFrame:              DefaultMaxFrame,
		CheckpointPath:        DefaultCheckpointPath,
		Logic:                 DefaultLogic,
	}
}

// ConfirmPollInterval returns the configured poll interval as a Duration.
func (c Config) ConfirmPollInterval() time.Duration {
	if c.ConfirmPollIntervalMS <= 0 {
		return DefaultConfirmPollInterval
	}
	return time.Duration(c.ConfirmPollIntervalMS) * time.Millisecond
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file leaves zero-valued.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	loaded := Default()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Config{}, err
	}
	return loaded, nil
}
