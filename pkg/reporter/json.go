package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.lsp.dev/protocol"

	"github.com/yaklabco/yamlfix/pkg/lsp"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
	"github.com/yaklabco/yamlfix/pkg/runner"
)

// jsonSchemaVersion versions the layout of JSON output.
const jsonSchemaVersion = "1"

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
}

// JSONFileResult represents a single file's results.
type JSONFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []JSONDiagnostic `json:"diagnostics"`
	Fixed       int              `json:"fixed,omitempty"`
	Modified    bool             `json:"modified,omitempty"`
	Backup      string           `json:"backup,omitempty"`
	Skipped     string           `json:"skipped,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// JSONDiagnostic is one diagnostic with both byte offsets and an LSP range.
type JSONDiagnostic struct {
	Code     string             `json:"code"`
	Severity string             `json:"severity"`
	Message  string             `json:"message"`
	Offset   int                `json:"offset"`
	Length   int                `json:"length"`
	Range    *protocol.Range    `json:"range,omitempty"`
	Document int                `json:"document"`
	Path     string             `json:"path"`
	Fixable  bool               `json:"fixable"`
	Fix      *reconcile.FixData `json:"fix,omitempty"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	FilesChecked    int            `json:"filesChecked"`
	FilesWithIssues int            `json:"filesWithIssues"`
	FilesModified   int            `json:"filesModified"`
	FilesErrored    int            `json:"filesErrored"`
	TotalIssues     int            `json:"totalIssues"`
	Fixable         int            `json:"fixable"`
	Fixed           int            `json:"fixed"`
	BySeverity      map[string]int `json:"bySeverity"`
	ByCode          map[string]int `json:"byCode"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}
	return output.Summary.TotalIssues, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: jsonSchemaVersion,
		Files:   make([]JSONFileResult, 0),
		Summary: JSONSummary{
			BySeverity: make(map[string]int),
			ByCode:     make(map[string]int),
		},
	}
	if result == nil {
		return output
	}

	stats := result.Stats
	output.Summary.FilesChecked = stats.FilesProcessed
	output.Summary.FilesWithIssues = stats.FilesWithIssues
	output.Summary.FilesModified = stats.FilesModified
	output.Summary.FilesErrored = stats.FilesErrored
	output.Summary.TotalIssues = stats.DiagnosticsTotal
	output.Summary.Fixable = stats.DiagnosticsFixable
	output.Summary.Fixed = stats.DiagnosticsFixed
	for sev, n := range stats.DiagnosticsBySeverity {
		output.Summary.BySeverity[string(sev)] = n
	}
	for code, n := range stats.DiagnosticsByCode {
		output.Summary.ByCode[code] = n
	}

	output.Files = make([]JSONFileResult, 0, len(result.Files))
	for _, file := range result.Files {
		output.Files = append(output.Files, r.fileResult(file))
	}
	return output
}

func (r *JSONReporter) fileResult(file runner.FileOutcome) JSONFileResult {
	out := JSONFileResult{
		Path:        displayPath(file.Path, r.opts.WorkingDir),
		Diagnostics: make([]JSONDiagnostic, 0),
	}
	if file.Error != nil {
		out.Error = file.Error.Error()
		return out
	}

	pr := file.Result
	if pr == nil {
		return out
	}
	out.Fixed = len(pr.Fixed)
	out.Modified = pr.Written
	out.Backup = pr.BackupPath
	if pr.Skipped {
		out.Skipped = pr.SkipReason
	}
	if pr.FileResult == nil {
		return out
	}

	for _, d := range pr.Diagnostics {
		jd := JSONDiagnostic{
			Code:     d.Code,
			Severity: string(d.Severity),
			Message:  d.Message,
			Offset:   d.Offset,
			Length:   d.Length,
			Document: d.Document,
			Path:     d.Path.String(),
			Fixable:  d.HasFix(),
			Fix:      d.Fix,
		}
		if pr.Document != nil {
			rng := lsp.OffsetRange(pr.Document, d.Offset, d.End())
			jd.Range = &rng
		}
		out.Diagnostics = append(out.Diagnostics, jd)
	}
	return out
}
