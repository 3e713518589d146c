package config

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// YAMLIndent is the indentation used when writing configuration files.
const YAMLIndent = 2

// ToYAML serializes the persistent part of the configuration.
func (c *Config) ToYAML() ([]byte, error) {
	if c == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// FromYAML parses a configuration from YAML bytes. Fields that are absent
// keep their zero value.
func FromYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.Problems == nil {
		cfg.Problems = make(map[string]ProblemConfig)
	}
	return cfg, nil
}

// Clone returns a deep copy, CLI-only fields included.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Extensions = slices.Clone(c.Extensions)
	clone.Ignore = slices.Clone(c.Ignore)
	clone.FixCodes = slices.Clone(c.FixCodes)

	if c.Problems != nil {
		clone.Problems = make(map[string]ProblemConfig, len(c.Problems))
		for code, pc := range c.Problems {
			clone.Problems[code] = pc.clone()
		}
	}

	return &clone
}

func (pc ProblemConfig) clone() ProblemConfig {
	out := ProblemConfig{}
	if pc.Enabled != nil {
		enabled := *pc.Enabled
		out.Enabled = &enabled
	}
	if pc.Severity != nil {
		severity := *pc.Severity
		out.Severity = &severity
	}
	if pc.AutoFix != nil {
		autoFix := *pc.AutoFix
		out.AutoFix = &autoFix
	}
	return out
}

// ProblemCodes returns the configured problem codes, sorted.
func (c *Config) ProblemCodes() []string {
	return slices.Sorted(maps.Keys(c.Problems))
}
