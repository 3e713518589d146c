package pretty_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/internal/ui/pretty"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/runner"
)

func TestNewStyles_ColorDisabled(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	require.NotNil(t, styles)
	assert.Equal(t, "test", styles.Bold.Render("test"))
	assert.Equal(t, "test", styles.Error.Render("test"))
}

func TestIsColorEnabled(t *testing.T) {
	var buf bytes.Buffer

	assert.True(t, pretty.IsColorEnabled("always", &buf))
	assert.False(t, pretty.IsColorEnabled("never", &buf))
	assert.False(t, pretty.IsColorEnabled("auto", &buf), "buffers are not terminals")

	t.Setenv("NO_COLOR", "1")
	assert.True(t, pretty.IsColorEnabled("always", &buf))
}

func TestFormatEntry(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	out := styles.FormatEntry(pretty.Entry{
		Path:     "app.yml",
		Line:     2,
		Column:   3,
		Width:    4,
		Severity: config.SeverityError,
		Code:     "UNKNOWN_PROPERTY",
		Message:  "Unknown property 'prot'",
		FixTitle: "Change to 'port'",
		Source:   "  prot: 80",
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  app.yml:2:3  error  Unknown property 'prot'  (UNKNOWN_PROPERTY)", lines[0])
	assert.Equal(t, "        prot: 80", lines[1])
	assert.Equal(t, "        ^^^^", lines[2])
	assert.Equal(t, "      fix: Change to 'port'", lines[3])
}

func TestFormatSourceContext_ClampsWidth(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	out := styles.FormatSourceContext("a: é", 4, 10)
	assert.Equal(t, "      a: é\n         ^\n", out)
}

func TestFormatSeverity(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	tests := []struct {
		sev  config.Severity
		want string
	}{
		{config.SeverityError, "error"},
		{config.SeverityWarning, "warning"},
		{config.SeverityInfo, "info"},
		{config.SeverityHint, "hint"},
		{config.Severity("odd"), "odd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, styles.FormatSeverity(tt.sev))
	}
}

func TestFormatFileHeader(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	assert.Equal(t, "a.yml", styles.FormatFileHeader("a.yml", 0))
	assert.Equal(t, "a.yml (1 issue)", styles.FormatFileHeader("a.yml", 1))
	assert.Equal(t, "a.yml (3 issues)", styles.FormatFileHeader("a.yml", 3))
}

func TestFormatSummaryOneLine(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)

	clean := runner.Stats{FilesProcessed: 4}
	assert.Equal(t, "No issues found (4 files checked)\n", styles.FormatSummaryOneLine(clean))

	fixedClean := runner.Stats{FilesProcessed: 1, DiagnosticsFixed: 2, FilesModified: 1}
	assert.Equal(t, "No issues found (1 file checked), 2 fixed in 1 file\n", styles.FormatSummaryOneLine(fixedClean))

	dirty := runner.Stats{
		FilesProcessed:     3,
		FilesWithIssues:    2,
		DiagnosticsTotal:   3,
		DiagnosticsFixable: 2,
		DiagnosticsBySeverity: map[config.Severity]int{
			config.SeverityError:   2,
			config.SeverityWarning: 1,
		},
	}
	assert.Equal(t, "3 issues (2 errors, 1 warning) in 2 files, 2 fixable\n", styles.FormatSummaryOneLine(dirty))

	partlyFixed := runner.Stats{
		FilesProcessed:        2,
		FilesWithIssues:       1,
		FilesModified:         1,
		DiagnosticsTotal:      1,
		DiagnosticsFixed:      3,
		DiagnosticsBySeverity: map[config.Severity]int{config.SeverityWarning: 1},
	}
	assert.Equal(t, "1 issue (1 warning) in 1 file, 3 fixed in 1 file\n", styles.FormatSummaryOneLine(partlyFixed))
}

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	out := styles.FormatSummary(runner.Stats{
		FilesProcessed:        2,
		FilesWithIssues:       1,
		DiagnosticsTotal:      1,
		DiagnosticsBySeverity: map[config.Severity]int{config.SeverityWarning: 1},
	})

	assert.Contains(t, out, "Files checked:     2")
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "Check completed with warnings")

	out = styles.FormatSummary(runner.Stats{FilesProcessed: 1})
	assert.Contains(t, out, "Check passed")
}

func TestFormatTable(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	table := pretty.NewTableFormatter(styles, false, 0)

	assert.Empty(t, table.FormatTable(nil))

	out := table.FormatTable([][]pretty.Entry{
		{{Path: "a.yml", Line: 1, Column: 1, Code: "UNKNOWN_PROPERTY", Message: "Unknown property 'x'", FixTitle: "Remove 'x'"}},
		{},
		{{Path: "b.yml", Line: 3, Column: 5, Code: "DUPLICATE_KEY", Message: "Duplicate key 'y'"}},
	})

	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "UNKNOWN_PROPERTY")
	assert.Contains(t, out, "3:5")
	assert.Contains(t, out, "Legend")
	assert.Equal(t, 1, strings.Count(out, "\n-"), "one light separator between two groups")
}

func TestFormatTable_TruncatesToWidth(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	table := pretty.NewTableFormatter(styles, false, 80)

	long := strings.Repeat("d/", 40) + "file.yml"
	out := table.FormatTable([][]pretty.Entry{
		{{Path: long, Line: 1, Column: 1, Code: "X", Message: "m"}},
	})
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "file.yml")
}
