package runner

import (
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/engine"
)

// FileOutcome is the result of one file. Exactly one of Result and Error is
// set.
type FileOutcome struct {
	Path   string
	Result *engine.PipelineResult
	Error  error
}

// Stats aggregates a run.
type Stats struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesSkipped    int
	FilesErrored    int
	FilesWithIssues int
	FilesModified   int

	DiagnosticsTotal   int
	DiagnosticsFixable int
	DiagnosticsFixed   int
	EditsApplied       int

	// DiagnosticsBySeverity counts remaining diagnostics per severity.
	DiagnosticsBySeverity map[config.Severity]int

	// DiagnosticsByCode counts remaining diagnostics per problem code.
	DiagnosticsByCode map[string]int
}

// Result is the outcome of a run.
type Result struct {
	// Files is ordered by path.
	Files []FileOutcome
	Stats Stats
}

// HasErrors reports whether a diagnostic of error severity remains.
func (r *Result) HasErrors() bool {
	return r != nil && r.Stats.DiagnosticsBySeverity[config.SeverityError] > 0
}

// HasWarnings reports whether a diagnostic of warning severity remains.
func (r *Result) HasWarnings() bool {
	return r != nil && r.Stats.DiagnosticsBySeverity[config.SeverityWarning] > 0
}

// HasIssues reports whether any diagnostic remains.
func (r *Result) HasIssues() bool {
	return r != nil && r.Stats.DiagnosticsTotal > 0
}

// HasFileErrors reports whether a file could not be processed.
func (r *Result) HasFileErrors() bool {
	return r != nil && r.Stats.FilesErrored > 0
}

func newStats() Stats {
	return Stats{
		DiagnosticsBySeverity: make(map[config.Severity]int),
		DiagnosticsByCode:     make(map[string]int),
	}
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}
	pr := outcome.Result
	if pr == nil {
		return
	}

	r.Stats.FilesProcessed++
	if pr.Skipped {
		r.Stats.FilesSkipped++
	}
	if pr.Written {
		r.Stats.FilesModified++
	}
	r.Stats.DiagnosticsFixed += len(pr.Fixed)
	r.Stats.EditsApplied += pr.TotalEditsApplied

	if pr.FileResult == nil {
		return
	}
	if pr.HasIssues() {
		r.Stats.FilesWithIssues++
	}
	r.Stats.DiagnosticsTotal += pr.IssueCount()
	r.Stats.DiagnosticsFixable += pr.FixableCount()
	for _, d := range pr.Diagnostics {
		severity := d.Severity
		if severity == "" {
			severity = config.SeverityError
		}
		r.Stats.DiagnosticsBySeverity[severity]++
		r.Stats.DiagnosticsByCode[d.Code]++
	}
}
