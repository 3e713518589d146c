package reconcile

import (
	"fmt"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// FixKind selects the edit a quick fix performs.
type FixKind int

const (
	// FixRename moves a property and its value to NewPath.
	FixRename FixKind = iota + 1

	// FixCreate adds every path in Paths with Value.
	FixCreate

	// FixDelete removes the diagnostic's path and any ancestors left empty.
	FixDelete

	// FixReplaceValue replaces the diagnostic's region with Replacement.
	FixReplaceValue
)

// String returns the kind name used in JSON output.
func (k FixKind) String() string {
	switch k {
	case FixRename:
		return "rename"
	case FixCreate:
		return "create"
	case FixDelete:
		return "delete"
	case FixReplaceValue:
		return "replace-value"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k FixKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the names
// returned by String.
func (k *FixKind) UnmarshalText(text []byte) error {
	for _, kind := range []FixKind{FixRename, FixCreate, FixDelete, FixReplaceValue} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	if string(text) == "none" {
		*k = 0
		return nil
	}
	return fmt.Errorf("unknown fix kind %q", text)
}

// FixData describes a quick fix without computing its edits. Paths are
// relative to the diagnostic's document.
type FixData struct {
	Kind  FixKind `json:"kind"`
	Title string  `json:"title"`

	NewPath     yamlpath.Path   `json:"newPath"`
	Paths       []yamlpath.Path `json:"paths,omitempty"`
	Value       string          `json:"value,omitempty"`
	Replacement string          `json:"replacement,omitempty"`
}

// Diagnostic is one problem found in a file.
type Diagnostic struct {
	// Offset and Length delimit the offending text.
	Offset int `json:"offset"`
	Length int `json:"length"`

	Message  string          `json:"message"`
	Severity config.Severity `json:"severity"`
	Code     string          `json:"code"`

	// Document is the index of the YAML document in the stream.
	Document int `json:"document"`

	// Path addresses the offending node within its document.
	Path yamlpath.Path `json:"path"`

	Fix *FixData `json:"fix,omitempty"`
}

// End returns the offset just past the diagnostic region.
func (d *Diagnostic) End() int {
	return d.Offset + d.Length
}

// HasFix reports whether the diagnostic carries fix data.
func (d *Diagnostic) HasFix() bool {
	return d.Fix != nil
}

// DiagnosticBuilder helps construct Diagnostic values.
type DiagnosticBuilder struct {
	diag Diagnostic
}

// NewDiagnostic starts a diagnostic for a code over a region.
func NewDiagnostic(code string, r Region, message string) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		diag: Diagnostic{
			Code:    code,
			Offset:  r.Start,
			Length:  r.End - r.Start,
			Message: message,
		},
	}
}

// At sets the document index and path.
func (b *DiagnosticBuilder) At(document int, path yamlpath.Path) *DiagnosticBuilder {
	b.diag.Document = document
	b.diag.Path = path
	return b
}

// WithSeverity sets the severity.
func (b *DiagnosticBuilder) WithSeverity(s config.Severity) *DiagnosticBuilder {
	b.diag.Severity = s
	return b
}

// WithFix attaches fix data.
func (b *DiagnosticBuilder) WithFix(f *FixData) *DiagnosticBuilder {
	b.diag.Fix = f
	return b
}

// Build returns the constructed Diagnostic.
func (b *DiagnosticBuilder) Build() Diagnostic {
	return b.diag
}
