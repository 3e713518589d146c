// Package lsp renders diagnostics and quick fix edits as Language Server
// Protocol payloads. It performs no transport.
package lsp

import (
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/quickfix"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
)

// Source names yamlfix as the producer of diagnostics.
const Source = "yamlfix"

// Position converts a byte-based position of doc to an LSP position, whose
// character counts UTF-16 code units.
func Position(doc *document.Document, p document.Position) protocol.Position {
	text := doc.LineText(p.Line)
	limit := min(max(p.Character, 0), len(text))

	units := 0
	for _, r := range text[:limit] {
		if r == utf8.RuneError {
			units++
			continue
		}
		units += utf16.RuneLen(r)
	}

	return protocol.Position{Line: uint32(max(p.Line, 0)), Character: uint32(units)} //nolint:gosec // bounded by document size
}

// OffsetRange converts a byte range of doc to an LSP range.
func OffsetRange(doc *document.Document, start, end int) protocol.Range {
	return protocol.Range{
		Start: Position(doc, doc.ToPosition(start)),
		End:   Position(doc, doc.ToPosition(end)),
	}
}

// Severity maps a configured severity to the LSP severity.
func Severity(s config.Severity) protocol.DiagnosticSeverity {
	switch s {
	case config.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case config.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case config.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

// Diagnostic converts a reconciler diagnostic. Fix data travels in Data so
// that a code action request can recompute the edit.
func Diagnostic(doc *document.Document, d reconcile.Diagnostic) protocol.Diagnostic {
	out := protocol.Diagnostic{
		Range:    OffsetRange(doc, d.Offset, d.End()),
		Severity: Severity(d.Severity),
		Code:     d.Code,
		Source:   Source,
		Message:  d.Message,
	}
	if d.Code == reconcile.CodeDeprecatedProperty {
		out.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagDeprecated}
	}
	if d.Fix != nil {
		out.Data = d.Fix
	}
	return out
}

// Diagnostics converts every diagnostic of doc.
func Diagnostics(doc *document.Document, diags []reconcile.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = Diagnostic(doc, d)
	}
	return out
}

// PublishDiagnostics builds the payload of a diagnostics push.
func PublishDiagnostics(doc *document.Document, diags []reconcile.Diagnostic) protocol.PublishDiagnosticsParams {
	return protocol.PublishDiagnosticsParams{
		URI:         uri.New(doc.URI()),
		Diagnostics: Diagnostics(doc, diags),
	}
}

// TextEdit converts a quick fix edit over doc.
func TextEdit(doc *document.Document, q *quickfix.QuickfixEdit) protocol.TextEdit {
	return protocol.TextEdit{
		Range:   OffsetRange(doc, q.Replacement.Start, q.Replacement.End),
		NewText: q.NewText,
	}
}

// WorkspaceEdit wraps a quick fix edit for an "apply workspace edit"
// request.
func WorkspaceEdit(doc *document.Document, q *quickfix.QuickfixEdit) protocol.WorkspaceEdit {
	return protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentURI][]protocol.TextEdit{
			uri.New(q.URI): {TextEdit(doc, q)},
		},
	}
}

// CodeAction builds the quick fix code action resolving d.
func CodeAction(doc *document.Document, d reconcile.Diagnostic, q *quickfix.QuickfixEdit) protocol.CodeAction {
	edit := WorkspaceEdit(doc, q)
	title := q.Title
	if title == "" && d.Fix != nil {
		title = d.Fix.Title
	}
	return protocol.CodeAction{
		Title:       title,
		Kind:        protocol.QuickFix,
		Diagnostics: []protocol.Diagnostic{Diagnostic(doc, d)},
		IsPreferred: d.Fix != nil && d.Fix.Kind != reconcile.FixDelete,
		Edit:        &edit,
	}
}

// ShowDocument builds the cursor move that follows an applied edit, or nil
// when the edit carries no cursor.
func ShowDocument(doc *document.Document, q *quickfix.QuickfixEdit) *protocol.ShowDocumentParams {
	if q.Cursor == nil {
		return nil
	}
	edited := document.New(q.URI, fix.ApplyReplacement(doc.Bytes(), q.Replacement))
	pos := Position(edited, *q.Cursor)
	return &protocol.ShowDocumentParams{
		URI:       uri.New(q.URI),
		TakeFocus: true,
		Selection: &protocol.Range{Start: pos, End: pos},
	}
}
