// Package config loads the project-level scan configuration from
// .hodeiscan.yaml: which rule directories to load, where the baseline
// lives, and the pass/fail policy applied to the resulting findings.
// This is distinct from orchestrator.OrchestratorConfig, a separate TOML
// file scoped to extractor process definitions - the spec's explicit
// split between IR/rule config (YAML) and orchestrator config (TOML).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hodeiscan/hodeiscan/ir"
)

// ScanConfig holds project-level configuration loaded from
// .hodeiscan.yaml.
type ScanConfig struct {
	Scan   ScanSettings   `yaml:"scan"`
	Policy PolicySettings `yaml:"policy"`
	Output OutputSettings `yaml:"output"`
}

// ScanSettings controls which rules are loaded and which paths are
// scanned.
type ScanSettings struct {
	RulesDir     []string      `yaml:"rules_dir"`
	Exclude      []string      `yaml:"exclude"`
	Include      []string      `yaml:"include"`
	DisableRules []string      `yaml:"disable_rules"`
	Orchestrator string        `yaml:"orchestrator_config"`
	RulesConfig  RulesSettings `yaml:"rules"`
}

// RulesSettings allows a project to override a rule's severity without
// editing the rule file itself.
type RulesSettings struct {
	SeverityOverride map[string]ir.Severity `yaml:"severity_override"`
}

// PolicySettings controls pass/fail thresholds and baseline behavior,
// visible to the orchestrator's caller as the knobs deciding whether a
// scan's findings fail CI.
type PolicySettings struct {
	FailOn       ir.Severity `yaml:"fail_on"`
	BaselineMode string      `yaml:"baseline_mode"` // "off", "filter", "record"
	BaselinePath string      `yaml:"baseline_path"`
}

// OutputSettings controls default report output format and directory.
type OutputSettings struct {
	Format    string `yaml:"format"` // "sarif", currently the only emitter
	Directory string `yaml:"directory"`
}

const defaultFileName = ".hodeiscan.yaml"

// Load reads .hodeiscan.yaml from root and returns the parsed config. If
// the file does not exist, a zero-value ScanConfig is returned with no
// error, matching the teacher's LoadScanConfig.
func Load(root string) (*ScanConfig, error) {
	path := filepath.Join(root, defaultFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ScanConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg ScanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// RulesDirs returns the configured rule directories, defaulting to
// ["rules"] relative to root when none are configured.
func (c *ScanConfig) RulesDirs(root string) []string {
	if len(c.Scan.RulesDir) == 0 {
		return []string{filepath.Join(root, "rules")}
	}
	dirs := make([]string, len(c.Scan.RulesDir))
	for i, d := range c.Scan.RulesDir {
		if filepath.IsAbs(d) {
			dirs[i] = d
		} else {
			dirs[i] = filepath.Join(root, d)
		}
	}
	return dirs
}

// BaselinePath returns the configured baseline path, or the package
// baseline's conventional default for branch when unset.
func (c *ScanConfig) BaselinePath(root, branch string, defaultPath func(root, branch string) string) string {
	if c.Policy.BaselinePath != "" {
		return c.Policy.BaselinePath
	}
	return defaultPath(root, branch)
}

// ShouldFail reports whether worst, the most severe finding in a scan,
// meets or exceeds the configured fail_on threshold. A zero-value
// PolicySettings (fail_on unset, which decodes to ir.SeverityInfo)
// fails on anything at all, matching a conservative default.
func (c *ScanConfig) ShouldFail(worst ir.Severity) bool {
	return worst >= c.Policy.FailOn
}
