package configloader

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field, e.g. "problems.FOO.severity".
	Field string

	Value any

	Message string

	// FilePath is the config file containing the error, if known.
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors prevent loading.
	Errors []ValidationError

	// Warnings are reported but do not prevent loading.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

func (r *ValidationResult) errorf(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownFormats = map[config.OutputFormat]bool{
	config.FormatText:    true,
	config.FormatTable:   true,
	config.FormatJSON:    true,
	config.FormatDiff:    true,
	config.FormatSummary: true,
}

//nolint:gochecknoglobals // Read-only lookup table.
var knownBackupModes = map[string]bool{
	"sidecar": true,
	"none":    true,
}

const maxIndentWidth = 8

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	if cfg.Format != "" && !knownFormats[cfg.Format] {
		result.errorf("format", cfg.Format,
			"invalid format %q; must be one of: text, table, json, diff, summary", cfg.Format)
	}
	if cfg.Jobs < 0 {
		result.errorf("jobs", cfg.Jobs, "jobs must be >= 0 (0 means auto)")
	}
	if cfg.Backups.Mode != "" && !knownBackupModes[cfg.Backups.Mode] {
		result.errorf("backups.mode", cfg.Backups.Mode,
			"invalid backup mode %q; must be one of: sidecar, none", cfg.Backups.Mode)
	}
	if cfg.IndentWidth < 0 || cfg.IndentWidth > maxIndentWidth {
		result.errorf("indent_width", cfg.IndentWidth, "indent_width must be between 0 and %d (0 means default)", maxIndentWidth)
	}
	if cfg.MaxFixPasses < 0 {
		result.errorf("max_fix_passes", cfg.MaxFixPasses, "max_fix_passes must be >= 0 (0 means default)")
	}
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			result.errorf(fmt.Sprintf("extensions[%d]", i), ext, "extension %q must start with a dot", ext)
		}
	}

	validateProblems(cfg, result)
	validateIgnorePatterns(cfg, result)
	return result
}

func validateProblems(cfg *config.Config, result *ValidationResult) {
	for _, code := range cfg.ProblemCodes() {
		pc := cfg.Problems[code]
		if _, ok := reconcile.DefaultRegistry.Get(code); !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "problems." + code,
				Value:   code,
				Message: fmt.Sprintf("unknown problem code %q; it will be ignored", code),
			})
		}
		if pc.Severity != nil && !config.Severity(*pc.Severity).IsValid() {
			result.errorf("problems."+code+".severity", *pc.Severity,
				"invalid severity %q; must be one of: error, warning, info, hint", *pc.Severity)
		}
	}

	for _, code := range cfg.FixCodes {
		if _, ok := reconcile.DefaultRegistry.Get(code); !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "fix-codes",
				Value:   code,
				Message: fmt.Sprintf("unknown problem code %q", code),
			})
		}
	}
}

// validateIgnorePatterns compiles each pattern the way file discovery does.
func validateIgnorePatterns(cfg *config.Config, result *ValidationResult) {
	for i, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			result.errorf(fmt.Sprintf("ignore[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}
}

// ValidateWithFile validates a configuration and attributes every finding
// to filePath.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}
