package reporter_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/engine"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
	"github.com/yaklabco/yamlfix/pkg/reporter"
	"github.com/yaklabco/yamlfix/pkg/runner"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

const sample = "server:\n  prot: 80\n"

// sampleResult has one file with an unknown property (fixable error) and a
// deprecated property (warning), plus one file that failed to read.
func sampleResult() *runner.Result {
	doc := document.New("/work/app.yml", []byte(sample))
	diags := []reconcile.Diagnostic{
		{
			Offset:   0,
			Length:   6,
			Message:  "Property 'server' is deprecated",
			Severity: config.SeverityWarning,
			Code:     "DEPRECATED_PROPERTY",
			Path:     yamlpath.FromProperty("server"),
		},
		{
			Offset:   10,
			Length:   4,
			Message:  "Unknown property 'prot'",
			Severity: config.SeverityError,
			Code:     "UNKNOWN_PROPERTY",
			Path:     yamlpath.FromProperty("server.prot"),
			Fix:      &reconcile.FixData{Kind: reconcile.FixRename, Title: "Change to 'port'"},
		},
	}

	return &runner.Result{
		Files: []runner.FileOutcome{
			{
				Path: "/work/app.yml",
				Result: &engine.PipelineResult{
					FileResult: &engine.FileResult{Path: "/work/app.yml", Document: doc, Diagnostics: diags},
				},
			},
			{Path: "/work/missing.yml", Error: errors.New("file not found")},
		},
		Stats: runner.Stats{
			FilesProcessed:     1,
			FilesErrored:       1,
			FilesWithIssues:    1,
			DiagnosticsTotal:   2,
			DiagnosticsFixable: 1,
			DiagnosticsBySeverity: map[config.Severity]int{
				config.SeverityError:   1,
				config.SeverityWarning: 1,
			},
			DiagnosticsByCode: map[string]int{"UNKNOWN_PROPERTY": 1, "DEPRECATED_PROPERTY": 1},
		},
	}
}

func report(t *testing.T, opts reporter.Options, result *runner.Result) (string, int) {
	t.Helper()

	var buf bytes.Buffer
	opts.Writer = &buf
	opts.Color = "never"
	rep, err := reporter.New(opts)
	require.NoError(t, err)

	n, err := rep.Report(context.Background(), result)
	require.NoError(t, err)
	return buf.String(), n
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    reporter.Format
		wantErr bool
	}{
		{name: "empty defaults to text", input: "", want: reporter.FormatText},
		{name: "text", input: "text", want: reporter.FormatText},
		{name: "table", input: "table", want: reporter.FormatTable},
		{name: "json", input: "json", want: reporter.FormatJSON},
		{name: "diff", input: "diff", want: reporter.FormatDiff},
		{name: "summary", input: "summary", want: reporter.FormatSummary},
		{name: "unknown format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := reporter.ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := reporter.New(reporter.Options{Format: "xml"})
	require.Error(t, err)
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.WorkingDir = "/work"
	out, n := report(t, opts, sampleResult())

	assert.Equal(t, 2, n)
	assert.Contains(t, out, "app.yml (2 issues)")
	assert.Contains(t, out, "app.yml:1:1  warning  Property 'server' is deprecated  (DEPRECATED_PROPERTY)")
	assert.Contains(t, out, "app.yml:2:3  error  Unknown property 'prot'  (UNKNOWN_PROPERTY)")
	assert.Contains(t, out, "\n        ^^^^\n")
	assert.Contains(t, out, "fix: Change to 'port'")
	assert.Contains(t, out, "missing.yml: error: file not found")
	assert.Contains(t, out, "2 issues (1 error, 1 warning) in 1 file, 1 fixable")
	assert.NotContains(t, out, "/work/")
}

func TestTextReporter_Empty(t *testing.T) {
	t.Parallel()

	out, n := report(t, reporter.DefaultOptions(), &runner.Result{})
	assert.Zero(t, n)
	assert.Equal(t, "No files to check.\n", out)
}

func TestTextReporter_Flat(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.GroupByFile = false
	opts.ShowContext = false
	opts.ShowSummary = false
	out, _ := report(t, opts, sampleResult())

	assert.NotContains(t, out, "(2 issues)")
	assert.NotContains(t, out, "^")
	assert.Equal(t, 4, strings.Count(out, "\n"), "two diagnostics, one fix hint and one file error")
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.Format = reporter.FormatJSON
	opts.WorkingDir = "/work"
	out, n := report(t, opts, sampleResult())
	assert.Equal(t, 2, n)

	var decoded reporter.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	require.Len(t, decoded.Files, 2)
	app := decoded.Files[0]
	assert.Equal(t, "app.yml", app.Path)
	require.Len(t, app.Diagnostics, 2)

	unknown := app.Diagnostics[1]
	assert.Equal(t, "UNKNOWN_PROPERTY", unknown.Code)
	assert.Equal(t, "error", unknown.Severity)
	assert.True(t, unknown.Fixable)
	require.NotNil(t, unknown.Range)
	assert.EqualValues(t, 1, unknown.Range.Start.Line)
	assert.EqualValues(t, 2, unknown.Range.Start.Character)
	assert.EqualValues(t, 6, unknown.Range.End.Character)
	assert.Equal(t, "server.prot", unknown.Path)
	assert.Contains(t, out, `"kind": "rename"`)

	assert.Equal(t, "file not found", decoded.Files[1].Error)
	assert.Equal(t, 2, decoded.Summary.TotalIssues)
	assert.Equal(t, 1, decoded.Summary.BySeverity["warning"])
	assert.Equal(t, 1, decoded.Summary.ByCode["UNKNOWN_PROPERTY"])
	assert.Equal(t, 1, decoded.Summary.FilesErrored)
}

func TestJSONReporter_Compact(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.Format = reporter.FormatJSON
	opts.Compact = true
	out, _ := report(t, opts, nil)

	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"files":[]`)
}

func TestDiffReporter(t *testing.T) {
	t.Parallel()

	result := &runner.Result{Files: []runner.FileOutcome{
		{
			Path: "/work/a.yml",
			Result: &engine.PipelineResult{
				Diff: fix.GenerateDiff("/work/a.yml", []byte("level: INFO\n"), []byte("level: info\n")),
			},
		},
		{Path: "/work/clean.yml", Result: &engine.PipelineResult{}},
	}}

	opts := reporter.DefaultOptions()
	opts.Format = reporter.FormatDiff
	opts.WorkingDir = "/work"
	out, n := report(t, opts, result)

	assert.Equal(t, 1, n)
	assert.Contains(t, out, "diff --git a/a.yml b/a.yml\n--- a/a.yml\n+++ b/a.yml\n@@ -1,1 +1,1 @@\n-level: INFO\n+level: info\n")
	assert.Contains(t, out, "1 file changed, 1 insertion(+), 1 deletion(-)")
	assert.NotContains(t, out, "clean.yml")
}

func TestSummaryReporter(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.Format = reporter.FormatSummary
	opts.WorkingDir = "/work"
	out, n := report(t, opts, sampleResult())

	assert.Equal(t, 2, n)
	assert.Contains(t, out, "Problems Summary")
	assert.Contains(t, out, "Files Summary")
	assert.Contains(t, out, "UNKNOWN_PROPERTY")
	assert.Contains(t, out, "DEPRECATED_PROPERTY")
	assert.Contains(t, out, "app.yml")
	assert.Contains(t, out, "Check failed with errors")
}

func TestSummaryReporter_NoIssues(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.Format = reporter.FormatSummary
	out, n := report(t, opts, &runner.Result{})

	assert.Zero(t, n)
	assert.Equal(t, "No issues found\n", out)
}

func TestTableReporter(t *testing.T) {
	t.Parallel()

	opts := reporter.DefaultOptions()
	opts.Format = reporter.FormatTable
	opts.WorkingDir = "/work"
	out, n := report(t, opts, sampleResult())

	assert.Equal(t, 2, n)
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "2:3")
	assert.Contains(t, out, "missing.yml: error: file not found")
}
