// Package pathedit computes composite edits that create, delete and rename
// property paths in a YAML document while leaving unrelated text untouched.
package pathedit

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/structure"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// ErrNoEdit is returned when an operation cannot be expressed against the
// current tree. Nothing is recorded in that case.
var ErrNoEdit = errors.New("no edit available")

// seqItemShift is the column distance between a "-" and its content.
const seqItemShift = 2

var plainKeyPattern = regexp.MustCompile(`^\w[\w.\-]*$`)

// Options configures an Editor.
type Options struct {
	// IndentWidth is the indentation step for new nested keys.
	IndentWidth int
}

// Editor records path edits for one tree into one builder. The builder must
// have been created over the tree's source content.
type Editor struct {
	tree    *structure.Tree
	builder *fix.EditBuilder
	indent  int
	eol     string
}

// New creates an editor.
func New(tree *structure.Tree, builder *fix.EditBuilder, opts Options) *Editor {
	indent := opts.IndentWidth
	if indent <= 0 {
		indent = config.DefaultIndentWidth
	}
	return &Editor{
		tree:    tree,
		builder: builder,
		indent:  indent,
		eol:     tree.Source().LineTerminator(),
	}
}

// InsertionOffsetAfter returns the end of the last line of node's subtree
// that is neither blank nor a comment outdented to node's level. A new line
// inserted there, led by a line break, becomes the last entry of node.
func (e *Editor) InsertionOffsetAfter(node *structure.Node) int {
	doc := e.tree.Source()
	if node.Kind() == structure.KindDoc && node.LastRealChild() == nil {
		return node.NodeEnd()
	}

	first := doc.LineOfOffset(node.Start())
	line := doc.LineOfOffset(node.TreeEnd())
	for line > first && e.skippable(node, line) {
		line--
	}
	info, _ := doc.Line(line)
	return info.NewlineStart
}

func (e *Editor) skippable(node *structure.Node, line int) bool {
	doc := e.tree.Source()
	indent := doc.LineIndentation(line)
	if indent < 0 {
		return true
	}
	return node.Kind() != structure.KindDoc &&
		strings.HasPrefix(strings.TrimSpace(doc.LineText(line)), "#") &&
		indent <= node.Indent()
}

// CreatePath makes sure path exists below start. value is the raw text that
// follows the colon of the last key, such as " 8080" or "\n  a: 1" with
// continuation lines indented relative to the key. Existing prefixes are
// reused; when the whole path exists only the cursor moves.
func (e *Editor) CreatePath(start *structure.Node, path yamlpath.Path, value string) error {
	scratch := e.builder.Fork()
	if err := e.createPath(scratch, start, path, value, false, false); err != nil {
		return err
	}
	e.builder.Adopt(scratch)
	return nil
}

// createPath records the creation into b. clearedBefore reports that every
// line before the insertion point is being deleted by the same edit.
func (e *Editor) createPath(b *fix.EditBuilder, start *structure.Node, path yamlpath.Path, value string, freezeAfterKeys, clearedBefore bool) error {
	if start == nil || start.Kind() == structure.KindRoot || start.Kind() == structure.KindRaw {
		return ErrNoEdit
	}

	deepest, consumed := yamlpath.Resolve(path, start)
	if consumed == path.Len() {
		b.MoveCursorTo(e.cursorInside(deepest))
		return nil
	}

	missing := path.DropFirst(consumed).Segments()
	column, err := e.childColumn(deepest, missing[0])
	if err != nil {
		return err
	}

	keys, valueColumn, err := e.spine(missing, column)
	if err != nil {
		return err
	}

	content := b.Content()
	at := e.InsertionOffsetAfter(deepest)
	atLineStart := at == 0 || content[at-1] == '\n' || clearedBefore
	if atLineStart {
		keys = strings.TrimPrefix(keys, e.eol)
	}

	b.Insert(at, keys)
	if freezeAfterKeys {
		b.FreezeCursor()
	}
	if value != "" {
		b.Insert(at, e.withTerminator(structure.ApplyIndentation(value, valueColumn)))
	}
	if atLineStart && at < len(content) {
		b.InsertDetached(at, e.eol)
	}
	return nil
}

// withTerminator rewrites the line breaks in text to the document's.
func (e *Editor) withTerminator(text string) string {
	if e.eol == "\n" || !strings.Contains(text, "\n") {
		return text
	}
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", e.eol)
}

// cursorInside returns where editing continues inside an existing node.
func (e *Editor) cursorInside(node *structure.Node) int {
	if child := node.FirstRealChild(); child != nil {
		return child.Start()
	}
	if node.Kind() != structure.KindKey {
		return node.NodeEnd()
	}
	offset := node.ColonOffset() + 1
	if e.tree.Source().CharAt(offset) == ' ' && offset < node.NodeEnd() {
		offset++
	}
	return offset
}

// childColumn returns the column new children of node start at and checks
// that a child selected by seg can be added at all.
func (e *Editor) childColumn(node *structure.Node, seg yamlpath.Segment) (int, error) {
	keyCol, seqCol := -1, -1
	for _, child := range node.RealChildren() {
		switch {
		case child.Kind() == structure.KindKey && keyCol < 0:
			keyCol = child.Indent()
		case child.Kind() == structure.KindSeq && seqCol < 0:
			seqCol = child.Indent()
		}
	}

	if hasInlineValue(node) {
		return 0, ErrNoEdit
	}

	if seg.IsKey() {
		if seqCol >= 0 {
			return 0, ErrNoEdit
		}
		if keyCol >= 0 {
			return keyCol, nil
		}
	} else {
		if keyCol >= 0 || seg.IndexValue() != node.SeqChildCount() {
			return 0, ErrNoEdit
		}
		if seqCol >= 0 {
			return seqCol, nil
		}
	}

	switch node.Kind() {
	case structure.KindDoc:
		return 0, nil
	case structure.KindSeq:
		return node.Indent() + seqItemShift, nil
	default:
		return node.Indent() + e.indent, nil
	}
}

// hasInlineValue reports whether a key or sequence item carries a scalar on
// its own line, which leaves no room for children.
func hasInlineValue(node *structure.Node) bool {
	var rest string
	switch node.Kind() {
	case structure.KindKey:
		rest = node.SimpleValue()
	case structure.KindSeq:
		if node.FirstRealChild() != nil {
			return false
		}
		rest = strings.TrimSpace(strings.TrimPrefix(node.Text(), "-"))
	default:
		return false
	}
	return rest != "" && !strings.HasPrefix(rest, "#")
}

// spine renders the missing segments starting at column. It returns the
// text, led by a line break, and the column the value is relative to.
func (e *Editor) spine(segs []yamlpath.Segment, column int) (string, int, error) {
	var sb strings.Builder
	sameLine := false
	valueColumn := column

	for i, seg := range segs {
		if !sameLine {
			sb.WriteString(e.eol)
			sb.WriteString(strings.Repeat(" ", column))
		}
		last := i == len(segs)-1

		if seg.IsKey() {
			sb.WriteString(EncodeKey(seg.KeyName()))
			sb.WriteString(":")
			valueColumn = column
			column += e.indent
			sameLine = false
			continue
		}

		if i > 0 && seg.IndexValue() != 0 {
			return "", 0, ErrNoEdit
		}
		valueColumn = column
		if last {
			sb.WriteString("-")
		} else {
			sb.WriteString("- ")
		}
		column += seqItemShift
		sameLine = true
	}

	return sb.String(), valueColumn, nil
}

// EncodeKey renders a key so that the structure parser reads it back.
func EncodeKey(key string) string {
	if plainKeyPattern.MatchString(key) {
		return key
	}
	return strconv.Quote(key)
}

// DeletePathSpine deletes node with its whole subtree, then deletes
// ancestors left without other children. It climbs at most
// oldPath.Len()-commonPrefixLen-1 levels and never past a document.
func (e *Editor) DeletePathSpine(node *structure.Node, oldPath yamlpath.Path, commonPrefixLen int) error {
	scratch := e.builder.Fork()
	if _, _, err := e.deletePathSpine(scratch, node, oldPath, commonPrefixLen); err != nil {
		return err
	}
	e.builder.Adopt(scratch)
	return nil
}

// deletePathSpine records the deletion into b and returns the removed lines
// as the start of the first one and the end of the last one's content.
func (e *Editor) deletePathSpine(b *fix.EditBuilder, node *structure.Node, oldPath yamlpath.Path, commonPrefixLen int) (int, int, error) {
	if node == nil || node.Kind() == structure.KindRoot || node.Kind() == structure.KindDoc {
		return 0, 0, ErrNoEdit
	}

	limit := oldPath.Len() - commonPrefixLen - 1
	target := node
	for climbed := 0; climbed < limit; climbed++ {
		parent := target.Parent()
		if parent == nil || parent.Kind() == structure.KindDoc || parent.Kind() == structure.KindRoot {
			break
		}
		if len(parent.RealChildren()) != 1 {
			break
		}
		target = parent
	}

	end := e.InsertionOffsetAfter(target)
	if !e.startsAfterDash(target) {
		b.DeleteLinesBackward(target.Start(), end)
		doc := e.tree.Source()
		first, _ := doc.Line(doc.LineOfOffset(target.Start()))
		return first.StartOffset, end, nil
	}

	// The target shares its line with a sequence dash; keep the dash and
	// pull the next sibling up onto it.
	siblings := target.Parent().RealChildren()
	for i, sibling := range siblings {
		if sibling == target && i+1 < len(siblings) {
			b.Delete(target.Start(), siblings[i+1].Start())
			return target.Start(), siblings[i+1].Start(), nil
		}
	}
	b.Delete(target.Start(), end)
	return target.Start(), end, nil
}

func (e *Editor) startsAfterDash(node *structure.Node) bool {
	doc := e.tree.Source()
	info, _ := doc.Line(doc.LineOfOffset(node.Start()))
	return strings.TrimSpace(doc.TextBetween(info.StartOffset, node.Start())) != ""
}

// RenamePath moves the property at oldPath, with its value, to newPath.
// When only the last key differs the key is replaced in place. Otherwise
// the old spine is deleted down to the shared prefix and the new one is
// created there, and the cursor is frozen at the end of the new key.
func (e *Editor) RenamePath(start *structure.Node, oldPath, newPath yamlpath.Path) error {
	if start == nil || start.Kind() == structure.KindRoot {
		return ErrNoEdit
	}
	if newPath.HasPrefix(oldPath) || oldPath.HasPrefix(newPath) {
		return ErrNoEdit
	}

	node, ok := yamlpath.Traverse(oldPath, start)
	if !ok || node.Kind() != structure.KindKey {
		return ErrNoEdit
	}
	if _, exists := yamlpath.Traverse(newPath, start); exists {
		return ErrNoEdit
	}

	prefix := oldPath.CommonPrefix(newPath)
	last, _ := newPath.Last()
	if oldPath.Len() == newPath.Len() && prefix.Len() == newPath.Len()-1 && last.IsKey() {
		e.builder.Replace(node.Start(), node.ColonOffset(), EncodeKey(last.KeyName()))
		return nil
	}

	base, ok := yamlpath.Traverse(prefix, start)
	if !ok {
		return ErrNoEdit
	}

	scratch := e.builder.Fork()
	removal := scratch.Fork()
	removal.FreezeCursor()
	from, to, err := e.deletePathSpine(removal, node, oldPath, prefix.Len())
	if err != nil {
		return err
	}
	cleared := from == 0 && to >= e.InsertionOffsetAfter(base)
	value := node.ValueWithRelativeIndent()
	if err := e.createPath(scratch, base, newPath.DropFirst(prefix.Len()), value, true, cleared); err != nil {
		return err
	}
	scratch.Adopt(removal)
	e.builder.Adopt(scratch)
	return nil
}
