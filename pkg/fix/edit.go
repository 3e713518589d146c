// Package fix records text edits against an immutable document and turns
// them into a new text, a minimal replacement or a list of non-overlapping
// edits.
//
// Edits are expressed in the coordinates of the original content and may be
// recorded in any order. An EditBuilder also tracks where a caret should land
// once the edits are applied.
package fix

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/yaklabco/yamlfix/pkg/document"
)

// TextEdit replaces the bytes [StartOffset, EndOffset) with NewText.
type TextEdit struct {
	// StartOffset is the byte index where the edit begins (inclusive).
	StartOffset int `json:"start"`

	// EndOffset is the byte index where the edit ends (exclusive).
	EndOffset int `json:"end"`

	// NewText is the replacement text.
	NewText string `json:"newText"`
}

type opKind int

const (
	opDelete opKind = iota
	opInsert
)

// op is one recorded edit primitive.
type op struct {
	kind  opKind
	start int
	end   int
	text  string
	grab  bool
	seq   int
}

// EditBuilder accumulates insertions and deletions against fixed content.
//
// Operations recorded before FreezeCursor may move the cursor. The cursor
// follows the operation that reaches furthest into the original content: the
// end of its inserted text for an insertion, or the deletion point for a
// deletion. When no operation may move it, there is no selection.
type EditBuilder struct {
	content []byte
	ops     []op
	frozen  bool
	nextSeq int
}

// NewEditBuilder creates a builder for content. The content is not copied.
func NewEditBuilder(content []byte) *EditBuilder {
	return &EditBuilder{content: content}
}

// Content returns the original content.
func (b *EditBuilder) Content() []byte { return b.content }

// IsEmpty reports whether no operations have been recorded.
func (b *EditBuilder) IsEmpty() bool { return len(b.ops) == 0 }

// Insert records the insertion of text at offset. Multiple insertions at the
// same offset appear in recording order.
func (b *EditBuilder) Insert(offset int, text string) {
	b.record(op{kind: opInsert, start: offset, end: offset, text: text})
}

// InsertDetached records an insertion that never claims the cursor, even
// before FreezeCursor.
func (b *EditBuilder) InsertDetached(offset int, text string) {
	b.record(op{kind: opInsert, start: offset, end: offset, text: text})
	b.ops[len(b.ops)-1].grab = false
}

// Delete records the removal of [start, end).
func (b *EditBuilder) Delete(start, end int) {
	b.record(op{kind: opDelete, start: start, end: end})
}

// Replace records the replacement of [start, end) with text.
func (b *EditBuilder) Replace(start, end int, text string) {
	b.Delete(start, end)
	b.Insert(start, text)
}

// MoveCursorTo records an empty insertion at offset, placing the cursor there
// unless a later position already claims it.
func (b *EditBuilder) MoveCursorTo(offset int) {
	b.Insert(offset, "")
}

// DeleteLineBackward removes the line containing offset together with the
// line break before it. On the first line the following line break is
// removed instead; a single-line document becomes empty.
func (b *EditBuilder) DeleteLineBackward(offset int) {
	b.DeleteLinesBackward(offset, offset)
}

// DeleteLinesBackward removes every line from the one containing start to the
// one containing end, with the same line break handling as DeleteLineBackward.
func (b *EditBuilder) DeleteLinesBackward(start, end int) {
	doc := document.New("", b.content)
	first := doc.LineOfOffset(start)
	last := doc.LineOfOffset(max(start, end))
	firstLine, _ := doc.Line(first)
	lastLine, _ := doc.Line(last)

	switch {
	case first > 0:
		prev, _ := doc.Line(first - 1)
		b.Delete(prev.NewlineStart, lastLine.NewlineStart)
	case last < doc.LineCount()-1:
		b.Delete(firstLine.StartOffset, lastLine.EndOffset)
	default:
		b.Delete(firstLine.StartOffset, lastLine.NewlineStart)
	}
}

// FreezeCursor stops subsequent operations from claiming the cursor.
func (b *EditBuilder) FreezeCursor() {
	b.frozen = true
}

// Frozen reports whether FreezeCursor has been called.
func (b *EditBuilder) Frozen() bool { return b.frozen }

// Fork returns an empty builder over the same content that inherits the
// frozen state. Its operations can be folded back with Adopt.
func (b *EditBuilder) Fork() *EditBuilder {
	return &EditBuilder{content: b.content, frozen: b.frozen}
}

// Adopt appends the operations recorded in a forked builder, keeping their
// relative order and cursor eligibility.
func (b *EditBuilder) Adopt(other *EditBuilder) {
	for _, o := range other.ops {
		o.seq = b.nextSeq
		b.nextSeq++
		b.ops = append(b.ops, o)
	}
	b.frozen = b.frozen || other.frozen
}

func (b *EditBuilder) record(o op) {
	o.grab = !b.frozen
	o.seq = b.nextSeq
	b.nextSeq++
	b.ops = append(b.ops, o)
}

// Apply returns the content with all recorded operations applied.
func (b *EditBuilder) Apply() ([]byte, error) {
	plan, err := b.linearize()
	if err != nil {
		return nil, err
	}
	return ApplyEdits(b.content, plan.edits), nil
}

// Selection returns the cursor offset in the edited content, if any
// operation was allowed to move it.
func (b *EditBuilder) Selection() (int, bool) {
	plan, err := b.linearize()
	if err != nil || plan.cursorEdit < 0 {
		return 0, false
	}
	return plan.cursor, true
}

// Edits returns the recorded operations as sorted, non-overlapping edits
// against the original content.
func (b *EditBuilder) Edits() ([]TextEdit, error) {
	plan, err := b.linearize()
	if err != nil {
		return nil, err
	}
	return plan.edits, nil
}

// Replacement is a single edit equivalent to all recorded operations.
type Replacement struct {
	Start   int
	End     int
	NewText string
}

// AsReplacement collapses the recorded operations into one replacement that
// spans from the smallest affected offset to the largest. It returns false
// when nothing was recorded.
func (b *EditBuilder) AsReplacement() (Replacement, bool, error) {
	if len(b.ops) == 0 {
		return Replacement{}, false, nil
	}

	result, err := b.Apply()
	if err != nil {
		return Replacement{}, false, err
	}

	start, end := len(b.content), 0
	for _, o := range b.ops {
		start = min(start, o.start)
		end = max(end, o.end)
	}

	tail := len(b.content) - end
	return Replacement{
		Start:   start,
		End:     end,
		NewText: string(result[start : len(result)-tail]),
	}, true, nil
}

// String renders the recorded operations for debugging.
func (b *EditBuilder) String() string {
	var sb strings.Builder
	for _, o := range b.ops {
		if o.kind == opInsert {
			fmt.Fprintf(&sb, "insert(%d, %q)", o.start, o.text)
		} else {
			fmt.Fprintf(&sb, "delete(%d, %d)", o.start, o.end)
		}
		if !o.grab {
			sb.WriteString(" frozen")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

type plan struct {
	edits      []TextEdit
	cursorEdit int
	cursor     int
}

// linearize validates the operations and turns them into sorted,
// non-overlapping edits. Overlapping or touching deletions are coalesced,
// insertions inside a deleted range are emitted at its start, and insertions
// sharing an offset keep their recording order.
func (b *EditBuilder) linearize() (plan, error) {
	result := plan{cursorEdit: -1}

	var deletes, inserts []op
	for _, o := range b.ops {
		if o.start < 0 || o.end > len(b.content) || o.start > o.end {
			return plan{}, &ValidationError{
				Edit:    TextEdit{StartOffset: o.start, EndOffset: o.end, NewText: o.text},
				Message: fmt.Sprintf("range outside content of length %d", len(b.content)),
			}
		}
		if o.kind == opInsert {
			inserts = append(inserts, o)
		} else if o.end > o.start {
			deletes = append(deletes, o)
		}
	}

	anchor, hasAnchor := b.anchor()

	slices.SortStableFunc(inserts, func(x, y op) int {
		return cmp.Or(cmp.Compare(x.start, y.start), cmp.Compare(x.seq, y.seq))
	})
	slices.SortFunc(deletes, func(x, y op) int {
		return cmp.Or(cmp.Compare(x.start, y.start), cmp.Compare(x.end, y.end))
	})

	var spans []op
	for _, d := range deletes {
		if n := len(spans); n > 0 && d.start <= spans[n-1].end {
			spans[n-1].end = max(spans[n-1].end, d.end)
			continue
		}
		spans = append(spans, d)
	}

	var (
		next    int
		delta   int
		cursor  = -1
		builder strings.Builder
	)

	emit := func(start, end int) {
		if cursor >= 0 {
			result.cursorEdit = len(result.edits)
			result.cursor = start + delta + cursor
		}
		edit := TextEdit{StartOffset: start, EndOffset: end, NewText: builder.String()}
		delta += len(edit.NewText) - (end - start)
		result.edits = append(result.edits, edit)
		builder.Reset()
		cursor = -1
	}

	writeInsert := func(o op) {
		builder.WriteString(o.text)
		if hasAnchor && anchor.kind == opInsert && anchor.seq == o.seq {
			cursor = builder.Len()
		}
	}

	flushInsertsBefore := func(limit int) {
		for next < len(inserts) && inserts[next].start < limit {
			offset := inserts[next].start
			for next < len(inserts) && inserts[next].start == offset {
				writeInsert(inserts[next])
				next++
			}
			emit(offset, offset)
		}
	}

	for _, span := range spans {
		flushInsertsBefore(span.start)

		anchored := hasAnchor && anchor.kind == opDelete &&
			anchor.start >= span.start && anchor.start <= span.end
		for next < len(inserts) && inserts[next].start <= span.end {
			if anchored && cursor < 0 && inserts[next].start >= anchor.start {
				cursor = builder.Len()
			}
			writeInsert(inserts[next])
			next++
		}
		if anchored && cursor < 0 {
			cursor = builder.Len()
		}
		emit(span.start, span.end)
	}
	flushInsertsBefore(len(b.content) + 1)

	if hasAnchor && result.cursorEdit < 0 && anchor.kind == opDelete {
		// Empty deletion: the cursor sits at the shifted anchor position.
		result.cursorEdit = len(result.edits)
		result.cursor = shift(result.edits, anchor.start)
	}

	return result, nil
}

// anchor picks the cursor-claiming operation that reaches furthest into the
// original content. Insertions win ties against deletions at the same
// offset, and later recordings win ties among equals.
func (b *EditBuilder) anchor() (op, bool) {
	var (
		best  op
		found bool
	)
	for _, o := range b.ops {
		if !o.grab {
			continue
		}
		if !found || cmp.Or(
			cmp.Compare(o.start, best.start),
			cmp.Compare(o.kind, best.kind),
			cmp.Compare(o.seq, best.seq),
		) > 0 {
			best, found = o, true
		}
	}
	return best, found
}

// shift maps an original offset through sorted edits.
func shift(edits []TextEdit, offset int) int {
	delta := 0
	for _, e := range edits {
		if e.StartOffset >= offset {
			break
		}
		if offset < e.EndOffset {
			return e.StartOffset + delta
		}
		delta += len(e.NewText) - (e.EndOffset - e.StartOffset)
	}
	return offset + delta
}
