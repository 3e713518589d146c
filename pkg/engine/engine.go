// Package engine checks YAML files against a schema and applies the
// resulting quick fixes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/quickfix"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
	"github.com/yaklabco/yamlfix/pkg/schema"
	"github.com/yaklabco/yamlfix/pkg/structure"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// FileResult holds the outcome of checking one file.
type FileResult struct {
	// Path is the file that was checked.
	Path string

	// Document is the checked snapshot.
	Document *document.Document

	// Diagnostics lists the problems found, ordered by offset.
	Diagnostics []reconcile.Diagnostic

	// Edits are validated, sorted, non-overlapping fix edits. Only
	// problems with auto-fix enabled contribute.
	Edits []fix.TextEdit

	// SkippedEdits overlapped an earlier edit and were left for a later
	// pass.
	SkippedEdits []fix.TextEdit

	// EditConflicts is true when edits were skipped, deferred or failed
	// validation.
	EditConflicts bool

	// Resolved lists the diagnostics whose edits are in Edits.
	Resolved []reconcile.Diagnostic

	// Unfixable counts auto-fixable diagnostics whose edit could not be
	// computed.
	Unfixable int

	// Deferred counts auto-fixable diagnostics held back because an earlier
	// fix in the same pass touches an overlapping path.
	Deferred int
}

// HasIssues reports whether any diagnostic was found.
func (fr *FileResult) HasIssues() bool {
	return len(fr.Diagnostics) > 0
}

// HasFixes reports whether any edit is ready to apply.
func (fr *FileResult) HasFixes() bool {
	return len(fr.Edits) > 0
}

// IssueCount returns the number of diagnostics.
func (fr *FileResult) IssueCount() int {
	return len(fr.Diagnostics)
}

// FixableCount returns the number of diagnostics carrying fix data.
func (fr *FileResult) FixableCount() int {
	count := 0
	for i := range fr.Diagnostics {
		if fr.Diagnostics[i].HasFix() {
			count++
		}
	}
	return count
}

// CountSeverity returns the number of diagnostics with severity s.
func (fr *FileResult) CountSeverity(s config.Severity) int {
	count := 0
	for i := range fr.Diagnostics {
		if fr.Diagnostics[i].Severity == s {
			count++
		}
	}
	return count
}

// Engine checks documents against one schema.
type Engine struct {
	// Schema is the type every checked file must match.
	Schema *schema.Schema

	// Registry holds the problem types and their defaults.
	Registry *reconcile.Registry
}

// New creates an Engine using the default problem registry.
func New(sch *schema.Schema) *Engine {
	return &Engine{Schema: sch, Registry: reconcile.DefaultRegistry}
}

// CheckContent reconciles content and, for every diagnostic whose problem
// allows automatic fixing, computes its quick fix edit.
func (e *Engine) CheckContent(
	ctx context.Context,
	path string,
	content []byte,
	cfg *config.Config,
) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}

	logger := logging.FromContext(ctx)
	doc := document.New(path, content)

	result := &FileResult{
		Path:     path,
		Document: doc,
		Diagnostics: reconcile.Check(doc, e.Schema,
			reconcile.WithConfig(cfg),
			reconcile.WithRegistry(e.registry()),
		),
	}

	var tree *structure.Tree
	var edits []fix.TextEdit
	var sources []reconcile.Diagnostic
	var claimed claims
	opts := quickfix.Options{IndentWidth: cfg.EffectiveIndentWidth()}

	for _, d := range result.Diagnostics {
		if !e.autoFix(d, cfg) {
			continue
		}
		touched := touchedPaths(d)
		if claimed.overlaps(d.Document, touched) {
			result.Deferred++
			continue
		}
		if tree == nil {
			tree = structure.Parse(doc)
		}

		q, err := quickfix.Compute(doc, tree, d, opts)
		if errors.Is(err, quickfix.ErrNoEdit) {
			result.Unfixable++
			logger.Debug("no edit for diagnostic",
				logging.FieldPath, path,
				logging.FieldCode, d.Code,
				logging.FieldOffset, d.Offset,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fix %s at %d: %w", d.Code, d.Offset, err)
		}
		edits = append(edits, q.Edit())
		sources = append(sources, d)
		claimed.add(d.Document, touched)
	}

	result.EditConflicts = result.Deferred > 0
	if len(edits) == 0 {
		return result, nil
	}

	accepted, skipped, _, err := fix.PrepareEditsFiltered(edits, len(content))
	if err != nil {
		logger.Debug("discarding invalid edits", logging.FieldPath, path, logging.FieldError, err)
		result.EditConflicts = true
		return result, nil
	}
	result.Edits = accepted
	result.SkippedEdits = skipped
	result.EditConflicts = result.EditConflicts || len(skipped) > 0
	result.Resolved = resolved(sources, edits, skipped)

	return result, nil
}

// resolved returns the sources whose edit was not skipped. Skipped edits are
// copies of the originals, so equal values identify them.
func resolved(sources []reconcile.Diagnostic, edits, skipped []fix.TextEdit) []reconcile.Diagnostic {
	pending := slices.Clone(skipped)
	out := make([]reconcile.Diagnostic, 0, len(sources))
	for i, e := range edits {
		if j := slices.Index(pending, e); j >= 0 {
			pending = slices.Delete(pending, j, j+1)
			continue
		}
		out = append(out, sources[i])
	}
	return out
}

func (e *Engine) registry() *reconcile.Registry {
	if e.Registry == nil {
		return reconcile.DefaultRegistry
	}
	return e.Registry
}

// autoFix reports whether d's fix should be applied without asking.
func (e *Engine) autoFix(d reconcile.Diagnostic, cfg *config.Config) bool {
	if !d.HasFix() {
		return false
	}
	pt, ok := e.registry().Get(d.Code)
	if !ok || !pt.CanFix {
		return false
	}
	return cfg.AutoFixEnabled(d.Code, pt.DefaultAutoFix)
}

// touchedPaths returns the document paths a fix reads or writes.
func touchedPaths(d reconcile.Diagnostic) []yamlpath.Path {
	switch d.Fix.Kind {
	case reconcile.FixRename:
		return []yamlpath.Path{d.Path, d.Fix.NewPath}
	case reconcile.FixCreate:
		return d.Fix.Paths
	default:
		return []yamlpath.Path{d.Path}
	}
}

type claim struct {
	document int
	path     yamlpath.Path
}

// claims collects the paths touched by the fixes accepted so far in a pass.
// Two fixes overlap when one path is a prefix of the other, such as a rename
// onto "server.port" and a creation of "server.port".
type claims []claim

func (c *claims) add(document int, paths []yamlpath.Path) {
	for _, p := range paths {
		*c = append(*c, claim{document: document, path: p})
	}
}

func (c claims) overlaps(document int, paths []yamlpath.Path) bool {
	for _, cl := range c {
		if cl.document != document {
			continue
		}
		for _, p := range paths {
			if cl.path.HasPrefix(p) || p.HasPrefix(cl.path) {
				return true
			}
		}
	}
	return false
}
