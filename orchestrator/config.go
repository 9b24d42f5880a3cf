// Package orchestrator spawns third-party analyzer processes ("extractors")
// under a bounded-concurrency scheduler, speaking a length-prefixed JSON
// protocol over each child's stdin/stdout, and aggregates their results
// tolerating partial failure.
package orchestrator

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ExtractorDef describes a single extractor process to invoke.
type ExtractorDef struct {
	ID             string            `toml:"id"`
	Command        string            `toml:"command"`
	Args           []string          `toml:"args"`
	Env            map[string]string `toml:"env,omitempty"`
	Enabled        bool              `toml:"enabled"`
	TimeoutSeconds int               `toml:"timeout_seconds,omitempty"`
	Config         map[string]any    `toml:"config,omitempty"`
}

// Timeout returns the extractor's own timeout if set, otherwise
// defaultTimeout.
func (d ExtractorDef) Timeout(defaultTimeout time.Duration) time.Duration {
	if d.TimeoutSeconds > 0 {
		return time.Duration(d.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}

// OrchestratorConfig is the TOML-described set of extractors to run and
// the scheduling knobs governing them, per spec §6.3.
type OrchestratorConfig struct {
	Extractors            []ExtractorDef `toml:"extractor"`
	MaxConcurrent         int            `toml:"max_concurrent"`
	DefaultTimeoutSeconds int            `toml:"default_timeout_seconds"`
}

// DefaultTimeout returns the configured default extractor timeout, or a
// conservative 300s fallback if unset.
func (c OrchestratorConfig) DefaultTimeout() time.Duration {
	if c.DefaultTimeoutSeconds > 0 {
		return time.Duration(c.DefaultTimeoutSeconds) * time.Second
	}
	return 300 * time.Second
}

// Concurrency returns the configured max_concurrent, or 1 if unset.
func (c OrchestratorConfig) Concurrency() int {
	if c.MaxConcurrent > 0 {
		return c.MaxConcurrent
	}
	return 1
}

// Enabled returns every ExtractorDef with Enabled set, preserving
// configuration order — the order ExecuteAll's results are reported in.
func (c OrchestratorConfig) Enabled() []ExtractorDef {
	out := make([]ExtractorDef, 0, len(c.Extractors))
	for _, d := range c.Extractors {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// LoadConfig reads and parses a TOML orchestrator configuration file.
func LoadConfig(path string) (OrchestratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OrchestratorConfig{}, &ConfigError{Err: fmt.Errorf("reading orchestrator config %s: %w", path, err)}
	}

	var cfg OrchestratorConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return OrchestratorConfig{}, &ConfigError{Err: fmt.Errorf("parsing orchestrator config %s: %w", path, err)}
	}
	if len(cfg.Enabled()) == 0 {
		return OrchestratorConfig{}, &ConfigError{Err: fmt.Errorf("orchestrator config %s: no enabled extractors", path)}
	}
	return cfg, nil
}
