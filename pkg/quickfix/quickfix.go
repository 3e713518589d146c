// Package quickfix turns the fix data of a diagnostic into one text
// replacement plus the cursor position that follows it.
package quickfix

import (
	"fmt"

	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/pathedit"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
	"github.com/yaklabco/yamlfix/pkg/structure"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// ErrNoEdit is returned when no edit can be computed for a diagnostic.
var ErrNoEdit = pathedit.ErrNoEdit

// Options configures edit computation.
type Options struct {
	IndentWidth int
}

// Range is a span of zero-based positions.
type Range struct {
	Start document.Position `json:"start"`
	End   document.Position `json:"end"`
}

// QuickfixEdit is a single replacement in one document. Cursor, when set, is
// the position in the edited document where editing should continue.
type QuickfixEdit struct {
	URI     string             `json:"uri"`
	Title   string             `json:"title,omitempty"`
	Range   Range              `json:"range"`
	NewText string             `json:"newText"`
	Cursor  *document.Position `json:"cursor,omitempty"`

	// Replacement is the same edit in byte offsets.
	Replacement fix.Replacement `json:"-"`
}

// Edit returns the replacement as a TextEdit.
func (q *QuickfixEdit) Edit() fix.TextEdit {
	return q.Replacement.Edit()
}

// Compute builds the edit for d. tree must be the outline of doc.
func Compute(doc *document.Document, tree *structure.Tree, d reconcile.Diagnostic, opts Options) (*QuickfixEdit, error) {
	if d.Fix == nil {
		return nil, ErrNoEdit
	}

	builder := fix.NewEditBuilder(doc.Bytes())
	if err := Record(tree, builder, d, opts); err != nil {
		return nil, err
	}

	q, err := FromBuilder(doc, builder)
	if err != nil {
		return nil, err
	}
	q.Title = d.Fix.Title
	return q, nil
}

// Record adds the operations of d's fix to builder.
func Record(tree *structure.Tree, builder *fix.EditBuilder, d reconcile.Diagnostic, opts Options) error {
	if d.Fix == nil {
		return ErrNoEdit
	}

	if d.Fix.Kind == reconcile.FixReplaceValue {
		builder.Replace(d.Offset, d.End(), d.Fix.Replacement)
		return nil
	}

	docNode, ok := tree.Doc(d.Document)
	if !ok {
		return ErrNoEdit
	}
	editOpts := pathedit.Options{IndentWidth: opts.IndentWidth}
	editor := pathedit.New(tree, builder, editOpts)

	switch d.Fix.Kind {
	case reconcile.FixDelete:
		node, found := yamlpath.Traverse(d.Path, docNode)
		if !found {
			return ErrNoEdit
		}
		return editor.DeletePathSpine(node, d.Path, 0)

	case reconcile.FixRename:
		return editor.RenamePath(docNode, d.Path, d.Fix.NewPath)

	case reconcile.FixCreate:
		return createAll(tree, builder, docNode, d.Fix.Paths, d.Fix.Value, editOpts)

	default:
		return fmt.Errorf("%w: unsupported fix kind %s", ErrNoEdit, d.Fix.Kind)
	}
}

// createAll creates every path with the cursor left on the first one.
func createAll(
	tree *structure.Tree,
	builder *fix.EditBuilder,
	docNode *structure.Node,
	paths []yamlpath.Path,
	value string,
	opts pathedit.Options,
) error {
	if len(paths) == 0 {
		return ErrNoEdit
	}

	scratch := builder.Fork()
	editor := pathedit.New(tree, scratch, opts)
	for i, p := range paths {
		if err := editor.CreatePath(docNode, p, value); err != nil {
			return err
		}
		if i == 0 {
			scratch.FreezeCursor()
		}
	}
	builder.Adopt(scratch)
	return nil
}

// FromBuilder collapses builder into a QuickfixEdit over doc.
func FromBuilder(doc *document.Document, builder *fix.EditBuilder) (*QuickfixEdit, error) {
	r, ok, err := builder.AsReplacement()
	if err != nil {
		return nil, fmt.Errorf("linearize edits: %w", err)
	}
	if !ok {
		return nil, ErrNoEdit
	}

	q := &QuickfixEdit{
		URI: doc.URI(),
		Range: Range{
			Start: doc.ToPosition(r.Start),
			End:   doc.ToPosition(r.End),
		},
		NewText:     r.NewText,
		Replacement: r,
	}

	if cursor, has := builder.Selection(); has {
		edited := document.New(doc.URI(), fix.ApplyReplacement(doc.Bytes(), r))
		pos := edited.ToPosition(cursor)
		q.Cursor = &pos
	}
	return q, nil
}
