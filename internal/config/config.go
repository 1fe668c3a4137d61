// Package config loads the audit run configuration: which baseline and
// whitelist sources to read, which directories to inspect, and which
// bug-tracker prefixes to accept in audit entries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"polkit-audit/internal/rules"
	"polkit-audit/internal/whitelist"
)

// Config is the full run configuration. Zero-value fields fall back to the
// defaults applied by Load and Default.
type Config struct {
	// PrivsFiles are the privilege baseline files, loaded in order.
	PrivsFiles []string `yaml:"privs_files"`
	// OverridesDir is the per-package privilege override directory.
	// Installed files below it feed the baseline for that package and
	// must be named in PrivsWhitelist.
	OverridesDir string `yaml:"overrides_dir"`
	// PrivsWhitelist names the override files allowed under OverridesDir.
	PrivsWhitelist []string `yaml:"privs_whitelist"`
	// Whitelists are whitelist documents (either schema), loaded in order.
	Whitelists []string `yaml:"whitelists"`
	// BugPrefixes are the recognized tracking-bug prefixes. Tracker
	// migrations add prefixes here instead of patching the parser.
	BugPrefixes []string `yaml:"bug_prefixes"`
	// RulesDirs are the rule-script directories subject to the rules
	// audit.
	RulesDirs []string `yaml:"rules_dirs"`
	// ActionsDir holds authorization-action descriptor files.
	ActionsDir string `yaml:"actions_dir"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return applyDefaults(Config{})
}

// Load reads a YAML run configuration. Unknown keys are rejected so that a
// typo in a config file fails loudly instead of silently disabling a check.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration content and applies defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	if cfg.PrivsFiles == nil {
		cfg.PrivsFiles = []string{"/etc/polkit-default-privs.standard"}
	}
	if cfg.OverridesDir == "" {
		cfg.OverridesDir = "/etc/polkit-default-privs.d/"
	}
	if cfg.BugPrefixes == nil {
		cfg.BugPrefixes = append([]string(nil), whitelist.DefaultBugPrefixes...)
	}
	if cfg.RulesDirs == nil {
		cfg.RulesDirs = append([]string(nil), rules.DefaultDirs...)
	}
	if cfg.ActionsDir == "" {
		cfg.ActionsDir = "/usr/share/polkit-1/actions/"
	}
	return cfg
}
