package pretty

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/yamlfix/pkg/config"
)

const (
	fixableSymbol      = "+"
	fixableColumnWidth = 3
	tableGaps          = 10
	minFileWidth       = 20
	minLocWidth        = 7
	minMessageWidth    = 35
	minCodeWidth       = 12
	heavySeparator     = "="
	lightSeparator     = "-"
	defaultTermWidth   = 100
)

// TableFormatter lays entries out in FILE, LOC, MESSAGE, CODE and FIXABLE
// columns sized to the terminal width.
type TableFormatter struct {
	styles       *Styles
	colorEnabled bool
	termWidth    int
}

// NewTableFormatter creates a table formatter. A non-positive width falls
// back to 100 columns.
func NewTableFormatter(styles *Styles, colorEnabled bool, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{styles: styles, colorEnabled: colorEnabled, termWidth: termWidth}
}

type columnWidths struct {
	file, loc, message, code int
}

// FormatTable renders groups of entries, one group per file. Empty groups
// are skipped and the result is empty when no entries remain.
func (t *TableFormatter) FormatTable(groups [][]Entry) string {
	var nonEmpty [][]Entry
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty = append(nonEmpty, g)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}

	widths := t.widths(nonEmpty)
	var b strings.Builder

	b.WriteString(t.styles.TableHeader.Render(fmt.Sprintf(" %-*s  %-*s  %-*s  %-*s  %s",
		widths.file, "FILE", widths.loc, "LOC", widths.message, "MESSAGE", widths.code, "CODE", "FIX")) + "\n")
	b.WriteString(t.separator(widths, heavySeparator) + "\n")
	for i, group := range nonEmpty {
		if i > 0 {
			b.WriteString(t.separator(widths, lightSeparator) + "\n")
		}
		for _, e := range group {
			b.WriteString(t.row(e, widths) + "\n")
		}
	}
	b.WriteString(t.separator(widths, heavySeparator) + "\n")
	b.WriteString(t.legend() + "\n")
	return b.String()
}

func (t *TableFormatter) widths(groups [][]Entry) columnWidths {
	w := columnWidths{file: minFileWidth, loc: minLocWidth, message: minMessageWidth, code: minCodeWidth}
	for _, g := range groups {
		for _, e := range g {
			w.file = max(w.file, len(e.Path))
			w.loc = max(w.loc, len(location(e)))
			w.message = max(w.message, len(e.Message))
			w.code = max(w.code, len(e.Code))
		}
	}

	// Shrink FILE then MESSAGE until the row fits.
	over := w.file + w.loc + w.message + w.code + fixableColumnWidth + tableGaps - t.termWidth
	if over > 0 {
		cut := min(over, w.file-minFileWidth)
		w.file -= cut
		over -= cut
	}
	if over > 0 {
		w.message -= min(over, w.message-minMessageWidth)
	}
	return w
}

func (t *TableFormatter) separator(w columnWidths, char string) string {
	total := w.file + w.loc + w.message + w.code + fixableColumnWidth + tableGaps
	return t.styles.TableSeparator.Render(strings.Repeat(char, total))
}

func (t *TableFormatter) row(e Entry, w columnWidths) string {
	fixable := " "
	if e.FixTitle != "" {
		fixable = fixableSymbol
	}
	content := fmt.Sprintf(" %-*s  %-*s  %-*s  %-*s  %s",
		w.file, truncateFilePath(e.Path, w.file),
		w.loc, location(e),
		w.message, truncateString(e.Message, w.message),
		w.code, truncateString(e.Code, w.code),
		fixable,
	)
	return t.rowStyle(e.Severity).Render(content)
}

func (t *TableFormatter) rowStyle(sev config.Severity) lipgloss.Style {
	switch sev {
	case config.SeverityError:
		return t.styles.TableErrorRow
	case config.SeverityWarning:
		return t.styles.TableWarnRow
	default:
		return lipgloss.NewStyle()
	}
}

func (t *TableFormatter) legend() string {
	if !t.colorEnabled {
		return t.styles.TableLegend.Render(" Legend: " + fixableSymbol + " = fixable")
	}
	return t.styles.TableLegend.Render(fmt.Sprintf(" Legend: %s = error  %s = warning  %s = fixable",
		t.styles.TableErrorRow.Render("error"),
		t.styles.TableWarnRow.Render("warning"),
		t.styles.TableFixable.Render(fixableSymbol)))
}

func location(e Entry) string {
	return fmt.Sprintf("%d:%d", e.Line, e.Column)
}

func truncateString(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	if maxLen <= 3 {
		return str[:maxLen]
	}
	return str[:maxLen-3] + "..."
}

// truncateFilePath keeps the end of the path, where the file name is.
func truncateFilePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[len(path)-maxLen:]
	}
	return "..." + path[len(path)-maxLen+3:]
}
