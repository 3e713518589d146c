package pretty

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yaklabco/yamlfix/pkg/config"
)

// Entry is one diagnostic prepared for display. Line and Column are
// 1-based; Column counts runes.
type Entry struct {
	Path     string
	Line     int
	Column   int
	Width    int
	Severity config.Severity
	Code     string
	Message  string
	FixTitle string

	// Source is the text of the diagnostic's line, shown under the message
	// when not empty.
	Source string
}

const contextIndent = "      "

// FormatEntry renders an entry as "path:line:col  severity  message  (CODE)"
// followed by optional source context and fix hint lines.
func (s *Styles) FormatEntry(e Entry) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "  %s%s  %s  %s  %s\n",
		s.FilePath.Render(e.Path),
		s.Location.Render(fmt.Sprintf(":%d:%d", e.Line, e.Column)),
		s.FormatSeverity(e.Severity),
		s.Message.Render(e.Message),
		s.Code.Render("("+e.Code+")"),
	)

	if e.Source != "" {
		sb.WriteString(s.FormatSourceContext(e.Source, e.Column, e.Width))
	}
	if e.FixTitle != "" {
		sb.WriteString(contextIndent + s.Dim.Render("fix:") + " " + s.FixTitle.Render(e.FixTitle) + "\n")
	}
	return sb.String()
}

// FormatSeverity renders a severity name in its color.
func (s *Styles) FormatSeverity(sev config.Severity) string {
	switch sev {
	case config.SeverityError:
		return s.Error.Render("error")
	case config.SeverityWarning:
		return s.Warning.Render("warning")
	case config.SeverityInfo:
		return s.Info.Render("info")
	case config.SeverityHint:
		return s.Hint.Render("hint")
	default:
		return string(sev)
	}
}

// FormatSourceContext renders line with a caret underline starting at the
// 1-based rune column and spanning width runes.
func (s *Styles) FormatSourceContext(line string, column, width int) string {
	line = strings.TrimRight(line, "\r\n")
	var sb strings.Builder
	sb.WriteString(contextIndent + s.SourceLine.Render(line) + "\n")
	if column <= 0 {
		return sb.String()
	}

	remaining := utf8.RuneCountInString(line) - (column - 1)
	width = max(1, min(width, remaining))
	sb.WriteString(contextIndent + strings.Repeat(" ", column-1) + s.Caret.Render(strings.Repeat("^", width)) + "\n")
	return sb.String()
}

// FormatFileHeader renders a file path with its issue count.
func (s *Styles) FormatFileHeader(path string, issues int) string {
	header := s.FilePath.Render(path)
	switch {
	case issues == 1:
		header += s.Dim.Render(" (1 issue)")
	case issues > 1:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issues))
	}
	return header
}
