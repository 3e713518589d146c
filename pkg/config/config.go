// Package config defines the configuration types for yamlfix. These are
// plain data structures; discovery and merging live in internal/configloader.
package config

import "slices"

// Severity is the severity level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo, SeverityHint:
		return true
	default:
		return false
	}
}

// Rank orders severities from hint (0) to error (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ProblemConfig holds per-problem-code overrides.
type ProblemConfig struct {
	Enabled  *bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Severity *string `yaml:"severity,omitempty" json:"severity,omitempty"`
	AutoFix  *bool   `yaml:"auto_fix,omitempty" json:"auto_fix,omitempty"`
}

// BackupsConfig controls backup behavior when fixing files.
type BackupsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Mode    string `yaml:"mode" json:"mode"` // "sidecar" or "none"
}

// OutputFormat specifies the output format for diagnostics.
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatJSON    OutputFormat = "json"
	FormatDiff    OutputFormat = "diff"
	FormatSummary OutputFormat = "summary"
	FormatTable   OutputFormat = "table"
)

// DefaultIndentWidth is the indentation used for newly created keys.
const DefaultIndentWidth = 2

// DefaultMaxFixPasses bounds the fix loop.
const DefaultMaxFixPasses = 10

// Config is the root configuration structure.
type Config struct {
	// Schema is the path of the schema definition file.
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`

	// Problems holds per-code overrides keyed by problem code.
	Problems map[string]ProblemConfig `yaml:"problems,omitempty" json:"problems,omitempty"`

	// Extensions lists the file extensions treated as YAML.
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`

	// Ignore contains glob patterns for files to skip.
	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`

	// IndentWidth is the indentation step for generated keys.
	IndentWidth int `yaml:"indent_width,omitempty" json:"indent_width,omitempty"`

	// MaxFixPasses bounds the number of fix iterations per file.
	MaxFixPasses int `yaml:"max_fix_passes,omitempty" json:"max_fix_passes,omitempty"`

	// Backups configures backup behavior when fixing.
	Backups BackupsConfig `yaml:"backups" json:"backups"`

	// CLI-level options, never persisted.

	Fix       bool         `yaml:"-" json:"-"`
	DryRun    bool         `yaml:"-" json:"-"`
	Strict    bool         `yaml:"-" json:"-"`
	NoBackups bool         `yaml:"-" json:"-"`
	Format    OutputFormat `yaml:"-" json:"-"`
	Jobs      int          `yaml:"-" json:"-"`

	// FixCodes limits auto-fixing to these problem codes.
	FixCodes []string `yaml:"-" json:"-"`
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Problems:     make(map[string]ProblemConfig),
		Extensions:   DefaultExtensions(),
		IndentWidth:  DefaultIndentWidth,
		MaxFixPasses: DefaultMaxFixPasses,
		Backups: BackupsConfig{
			Enabled: true,
			Mode:    "sidecar",
		},
		Format: FormatText,
	}
}

// DefaultExtensions returns the default YAML file extensions.
func DefaultExtensions() []string {
	return []string{".yml", ".yaml"}
}

// EffectiveIndentWidth returns IndentWidth or the default when unset.
func (c *Config) EffectiveIndentWidth() int {
	if c == nil || c.IndentWidth <= 0 {
		return DefaultIndentWidth
	}
	return c.IndentWidth
}

// EffectiveMaxFixPasses returns MaxFixPasses or the default when unset.
func (c *Config) EffectiveMaxFixPasses() int {
	if c == nil || c.MaxFixPasses <= 0 {
		return DefaultMaxFixPasses
	}
	return c.MaxFixPasses
}

// ProblemEnabled reports whether a problem code is enabled, given its
// default.
func (c *Config) ProblemEnabled(code string, def bool) bool {
	if c == nil {
		return def
	}
	if pc, ok := c.Problems[code]; ok && pc.Enabled != nil {
		return *pc.Enabled
	}
	return def
}

// ProblemSeverity returns the configured severity for a code, or def.
func (c *Config) ProblemSeverity(code string, def Severity) Severity {
	if c == nil {
		return def
	}
	if pc, ok := c.Problems[code]; ok && pc.Severity != nil && Severity(*pc.Severity).IsValid() {
		return Severity(*pc.Severity)
	}
	return def
}

// AutoFixEnabled reports whether fixes for a code may be applied
// automatically. FixCodes, when set, takes precedence over per-code
// settings.
func (c *Config) AutoFixEnabled(code string, def bool) bool {
	if c == nil {
		return def
	}
	if len(c.FixCodes) > 0 {
		return slices.Contains(c.FixCodes, code)
	}
	if pc, ok := c.Problems[code]; ok && pc.AutoFix != nil {
		return *pc.AutoFix
	}
	return def
}
