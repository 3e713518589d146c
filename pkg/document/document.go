// Package document provides an immutable text snapshot with a line table
// for converting between byte offsets and zero-based line/column positions.
package document

import (
	"sort"
	"strings"
)

// LineInfo describes one line of a document.
type LineInfo struct {
	// StartOffset is the byte offset of the first character of the line.
	StartOffset int

	// NewlineStart is the offset where the line delimiter begins, or the
	// end of the document for the last line.
	NewlineStart int

	// EndOffset is the offset just past the line delimiter.
	EndOffset int
}

// Length returns the length of the line content without its delimiter.
func (l LineInfo) Length() int {
	return l.NewlineStart - l.StartOffset
}

// Position is a zero-based line and byte column.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Document is an immutable text snapshot identified by a URI.
type Document struct {
	uri     string
	content []byte
	lines   []LineInfo
}

// New creates a document snapshot. The content slice is not copied and must
// not be modified afterwards.
func New(uri string, content []byte) *Document {
	return &Document{
		uri:     uri,
		content: content,
		lines:   BuildLines(content),
	}
}

// BuildLines constructs the line table for content. LF and CRLF delimiters
// are recognized. There is always at least one line, and content ending in a
// delimiter has a trailing empty line.
func BuildLines(content []byte) []LineInfo {
	lines := make([]LineInfo, 0, 16)
	lineStart := 0

	for idx, char := range content {
		if char != '\n' {
			continue
		}
		newlineStart := idx
		if idx > lineStart && content[idx-1] == '\r' {
			newlineStart = idx - 1
		}
		lines = append(lines, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	return append(lines, LineInfo{
		StartOffset:  lineStart,
		NewlineStart: len(content),
		EndOffset:    len(content),
	})
}

// LineTerminator returns the delimiter of the first delimited line, "\r\n"
// or "\n". Documents without any line break use "\n".
func (d *Document) LineTerminator() string {
	first := d.lines[0]
	if first.EndOffset-first.NewlineStart == 2 {
		return "\r\n"
	}
	return "\n"
}

// URI returns the document identifier.
func (d *Document) URI() string { return d.uri }

// Bytes returns the raw content.
func (d *Document) Bytes() []byte { return d.content }

// Text returns the content as a string.
func (d *Document) Text() string { return string(d.content) }

// Len returns the content length in bytes.
func (d *Document) Len() int { return len(d.content) }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns the line table entry for a zero-based line number.
func (d *Document) Line(line int) (LineInfo, bool) {
	if line < 0 || line >= len(d.lines) {
		return LineInfo{}, false
	}
	return d.lines[line], true
}

// LineOfOffset returns the zero-based line containing offset. Offsets
// outside the document are clamped.
func (d *Document) LineOfOffset(offset int) int {
	if offset <= 0 {
		return 0
	}
	idx := sort.Search(len(d.lines), func(i int) bool {
		return d.lines[i].EndOffset > offset
	})
	if idx >= len(d.lines) {
		return len(d.lines) - 1
	}
	return idx
}

// ToPosition converts a byte offset to a zero-based position.
func (d *Document) ToPosition(offset int) Position {
	offset = d.clamp(offset)
	line := d.LineOfOffset(offset)
	return Position{Line: line, Character: offset - d.lines[line].StartOffset}
}

// ToOffset converts a zero-based position to a byte offset. The column may
// point at the end of the line content but not into the delimiter.
func (d *Document) ToOffset(pos Position) (int, bool) {
	info, ok := d.Line(pos.Line)
	if !ok || pos.Character < 0 || pos.Character > info.Length() {
		return 0, false
	}
	return info.StartOffset + pos.Character, true
}

// LineText returns the content of a line without its delimiter.
func (d *Document) LineText(line int) string {
	info, ok := d.Line(line)
	if !ok {
		return ""
	}
	return string(d.content[info.StartOffset:info.NewlineStart])
}

// LineIndentation returns the number of leading spaces on a line, or -1 when
// the line is empty or holds only whitespace.
func (d *Document) LineIndentation(line int) int {
	text := d.LineText(line)
	if strings.TrimSpace(text) == "" {
		return -1
	}
	return len(text) - len(strings.TrimLeft(text, " "))
}

// TextBetween returns the text in [start, end), clamping both bounds to the
// document.
func (d *Document) TextBetween(start, end int) string {
	start, end = d.clamp(start), d.clamp(end)
	if end <= start {
		return ""
	}
	return string(d.content[start:end])
}

// CharAt returns the byte at offset, or 0 outside the document.
func (d *Document) CharAt(offset int) byte {
	if offset < 0 || offset >= len(d.content) {
		return 0
	}
	return d.content[offset]
}

func (d *Document) clamp(offset int) int {
	return max(0, min(offset, len(d.content)))
}
