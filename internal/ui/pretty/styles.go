// Package pretty renders styled terminal output with lipgloss.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles of every output element.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Hint    lipgloss.Style

	FilePath   lipgloss.Style
	Location   lipgloss.Style
	Code       lipgloss.Style
	Message    lipgloss.Style
	FixTitle   lipgloss.Style
	SourceLine lipgloss.Style
	Caret      lipgloss.Style

	DiffHeader  lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style

	Success      lipgloss.Style
	Failure      lipgloss.Style
	SummaryTitle lipgloss.Style
	SummaryValue lipgloss.Style

	TableHeader    lipgloss.Style
	TableSeparator lipgloss.Style
	TableFixable   lipgloss.Style
	TableErrorRow  lipgloss.Style
	TableWarnRow   lipgloss.Style
	TableLegend    lipgloss.Style

	Dim  lipgloss.Style
	Bold lipgloss.Style
}

// NewStyles returns colored styles, or plain ones when color is disabled.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &Styles{
			Error: plain, Warning: plain, Info: plain, Hint: plain,
			FilePath: plain, Location: plain, Code: plain, Message: plain,
			FixTitle: plain, SourceLine: plain, Caret: plain,
			DiffHeader: plain, DiffHunk: plain, DiffAdd: plain, DiffRemove: plain, DiffContext: plain,
			Success: plain, Failure: plain, SummaryTitle: plain, SummaryValue: plain,
			TableHeader: plain, TableSeparator: plain, TableFixable: plain,
			TableErrorRow: plain, TableWarnRow: plain, TableLegend: plain,
			Dim: plain, Bold: plain,
		}
	}

	color := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return &Styles{
		Error:   color("9").Bold(true),
		Warning: color("11").Bold(true),
		Info:    color("12").Bold(true),
		Hint:    color("8").Bold(true),

		FilePath:   lipgloss.NewStyle().Bold(true),
		Location:   color("8"),
		Code:       color("8"),
		Message:    lipgloss.NewStyle(),
		FixTitle:   color("10").Italic(true),
		SourceLine: color("7"),
		Caret:      color("9"),

		DiffHeader:  lipgloss.NewStyle().Bold(true),
		DiffHunk:    color("14"),
		DiffAdd:     color("10"),
		DiffRemove:  color("9"),
		DiffContext: color("8"),

		Success: color("10").Bold(true),
		Failure: color("9").Bold(true),

		SummaryTitle: lipgloss.NewStyle().Bold(true).Underline(true),
		SummaryValue: lipgloss.NewStyle().Bold(true),

		TableHeader:    color("7").Bold(true),
		TableSeparator: color("8"),
		TableFixable:   color("10"),
		TableErrorRow:  color("9"),
		TableWarnRow:   color("11"),
		TableLegend:    color("8"),

		Dim:  color("8"),
		Bold: lipgloss.NewStyle().Bold(true),
	}
}

// IsColorEnabled resolves a color mode ("always", "never" or "auto") for
// writer. Auto enables color on terminals unless NO_COLOR is set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := writer.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
