package reporter

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yaklabco/yamlfix/internal/ui/pretty"
	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
	"github.com/yaklabco/yamlfix/pkg/runner"
)

// displayPath makes path relative to workingDir when that does not climb
// out of it.
func displayPath(path, workingDir string) string {
	if workingDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(workingDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// entries converts the remaining diagnostics of a file for display.
func entries(file runner.FileOutcome, opts Options) []pretty.Entry {
	if file.Result == nil || file.Result.FileResult == nil {
		return nil
	}
	doc := file.Result.Document
	path := displayPath(file.Path, opts.WorkingDir)

	out := make([]pretty.Entry, 0, len(file.Result.Diagnostics))
	for i := range file.Result.Diagnostics {
		out = append(out, entry(path, doc, &file.Result.Diagnostics[i], opts.ShowContext))
	}
	return out
}

func entry(path string, doc *document.Document, d *reconcile.Diagnostic, withSource bool) pretty.Entry {
	e := pretty.Entry{
		Path:     path,
		Line:     1,
		Column:   1,
		Width:    max(1, d.Length),
		Severity: d.Severity,
		Code:     d.Code,
		Message:  d.Message,
	}
	if d.Fix != nil {
		e.FixTitle = d.Fix.Title
	}
	if doc == nil {
		return e
	}

	pos := doc.ToPosition(d.Offset)
	line := doc.LineText(pos.Line)
	e.Line = pos.Line + 1
	e.Column = utf8.RuneCountInString(line[:min(pos.Character, len(line))]) + 1
	e.Width = max(1, utf8.RuneCountInString(doc.TextBetween(d.Offset, d.End())))
	if withSource {
		e.Source = line
	}
	return e
}
