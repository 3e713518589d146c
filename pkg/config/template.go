package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const commentWrapWidth = 70

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full documents every problem code with its default settings.
	Full bool

	// Format is "yaml" (default) or "json".
	Format string

	// Schema is written as the schema path when non-empty.
	Schema string
}

// ProblemInfo describes a problem code for template generation.
type ProblemInfo struct {
	Code        string
	Description string
	Severity    Severity
	Enabled     bool
	CanFix      bool
	AutoFix     bool
}

// ProblemInfoProvider returns the known problem codes.
type ProblemInfoProvider func() []ProblemInfo

// DefaultProblemInfoProvider is set by the reconcile package during init.
//
//nolint:gochecknoglobals // Extension point that avoids an import cycle.
var DefaultProblemInfoProvider ProblemInfoProvider

// GenerateTemplate renders a commented configuration file.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	var buf bytes.Buffer

	schemaPath := opts.Schema
	if schemaPath == "" {
		schemaPath = "schema.yml"
	}

	fmt.Fprintf(&buf, `# yamlfix configuration

# Schema definition file, relative to this file
schema: %s

# File extensions treated as YAML
extensions: [.yml, .yaml]

# Indentation used for generated keys
indent_width: %d

# File patterns to ignore (glob patterns)
# ignore:
#   - "vendor/**"

backups:
  enabled: true
  mode: sidecar
`, schemaPath, DefaultIndentWidth)

	if opts.Full {
		writeProblems(&buf)
	} else {
		buf.WriteString(`
# Per-problem overrides
# problems:
#   UNKNOWN_PROPERTY:
#     severity: error
#     auto_fix: true
`)
	}

	if opts.Format == "json" {
		return templateToJSON(buf.Bytes())
	}
	return buf.Bytes(), nil
}

func writeProblems(buf *bytes.Buffer) {
	problems := problemInfos()
	sort.Slice(problems, func(i, j int) bool { return problems[i].Code < problems[j].Code })

	buf.WriteString("\n# Per-problem overrides\nproblems:\n")
	for _, p := range problems {
		fmt.Fprintf(buf, "\n  # %s\n", wrapComment(p.Description, commentWrapWidth))
		if p.CanFix {
			buf.WriteString("  # Quick fix: yes\n")
		}
		fmt.Fprintf(buf, "  %s:\n", p.Code)
		fmt.Fprintf(buf, "    enabled: %t\n", p.Enabled)
		fmt.Fprintf(buf, "    severity: %s\n", p.Severity)
		if p.CanFix {
			fmt.Fprintf(buf, "    auto_fix: %t\n", p.AutoFix)
		}
	}
}

func problemInfos() []ProblemInfo {
	if DefaultProblemInfoProvider != nil {
		return DefaultProblemInfoProvider()
	}
	return nil
}

func wrapComment(text string, maxWidth int) string {
	if len(text) <= maxWidth {
		return text
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxWidth:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	return strings.Join(lines, "\n  # ")
}

// templateToJSON drops the comments of a YAML template by decoding it and
// re-encodes the data as indented JSON.
func templateToJSON(yamlContent []byte) ([]byte, error) {
	var data map[string]any
	if err := yaml.Unmarshal(yamlContent, &data); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(out, '\n'), nil
}
