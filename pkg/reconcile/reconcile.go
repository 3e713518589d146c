// Package reconcile checks parsed YAML documents against a schema and
// reports diagnostics, some of which carry quick fix data.
package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/schema"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// Option configures a reconciliation.
type Option func(*options)

type options struct {
	cfg      *config.Config
	registry *Registry
}

// WithConfig applies per-code enablement and severity overrides.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithRegistry replaces the default problem type registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// Check parses doc and reconciles it against sch.
func Check(doc *document.Document, sch *schema.Schema, opts ...Option) []Diagnostic {
	return Reconcile(ParseSemantic(doc), sch, opts...)
}

// Reconcile walks every document of file against the schema's top type.
// The result is sorted by offset. It never fails: malformed input yields a
// YAML_SYNTAX diagnostic.
func Reconcile(file *SemanticFile, sch *schema.Schema, opts ...Option) []Diagnostic {
	o := options{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(&o)
	}

	var diags []Diagnostic
	if file.Syntax != nil {
		diags = append(diags, syntaxDiagnostic(file))
	}
	if sch != nil {
		diags = append(diags, checkDocumentCount(file, sch)...)
		for i, docNode := range file.Documents {
			w := walker{doc: file.Doc, document: i}
			if node := content(docNode); node != nil {
				diags = append(diags, w.walk(yamlpath.Path{}, nil, node, sch.Top)...)
			}
		}
	}

	return o.finish(diags)
}

// finish drops disabled codes, assigns severities and sorts the result.
func (o options) finish(diags []Diagnostic) []Diagnostic {
	out := diags[:0]
	for _, d := range diags {
		pt, known := o.registry.Get(d.Code)
		enabled, severity := true, config.SeverityError
		if known {
			enabled, severity = pt.DefaultEnabled, pt.DefaultSeverity
		}
		if !o.cfg.ProblemEnabled(d.Code, enabled) {
			continue
		}
		d.Severity = o.cfg.ProblemSeverity(d.Code, severity)
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func syntaxDiagnostic(file *SemanticFile) Diagnostic {
	region := Region{Start: 0, End: file.Doc.Len()}
	if info, ok := file.Doc.Line(file.Syntax.Line); ok {
		region = Region{Start: info.StartOffset, End: info.NewlineStart}
	}
	return NewDiagnostic(CodeYAMLSyntax, region, "Syntax error: "+file.Syntax.Message).
		At(len(file.Documents), yamlpath.Path{}).
		Build()
}

func checkDocumentCount(file *SemanticFile, sch *schema.Schema) []Diagnostic {
	doc := file.Doc
	count := len(file.Documents)
	name := sch.Name

	switch {
	case count == 0 && sch.MinDocuments > 0:
		return []Diagnostic{NewDiagnostic(CodeDocumentCount, Region{Start: 0, End: doc.Len()},
			fmt.Sprintf("'%s' must have at least some YAML content", name)).Build()}

	case sch.MaxDocuments > 0 && count > sch.MaxDocuments:
		extra := file.Documents[sch.MaxDocuments]
		return []Diagnostic{NewDiagnostic(CodeDocumentCount, separatorBefore(doc, extra),
			fmt.Sprintf("'%s' should not have more than %d YAML documents", name, sch.MaxDocuments)).
			At(sch.MaxDocuments, yamlpath.Path{}).
			Build()}

	case count < sch.MinDocuments:
		return []Diagnostic{NewDiagnostic(CodeDocumentCount, Region{Start: doc.Len(), End: doc.Len()},
			fmt.Sprintf("'%s' should have at least %d YAML documents", name, sch.MinDocuments)).Build()}
	}
	return nil
}

// separatorBefore locates the "---" that opens a document, falling back to
// the document's own region.
func separatorBefore(doc *document.Document, docNode *yaml.Node) Region {
	node := content(docNode)
	if node == nil {
		node = docNode
	}
	region := regionOf(doc, node)
	before := strings.TrimRight(doc.TextBetween(0, region.Start), " \t\r\n")
	if strings.HasSuffix(before, "---") {
		return Region{Start: len(before) - 3, End: len(before)}
	}
	return region
}

// walker visits one document. Each call returns the diagnostics of its
// subtree, so branches share no mutable state.
type walker struct {
	doc      *document.Document
	document int
}

func (w walker) diag(code string, node *yaml.Node, path yamlpath.Path, message string) *DiagnosticBuilder {
	return NewDiagnostic(code, regionOf(w.doc, node), message).At(w.document, path)
}

// walk checks node against typ. owner is the key node whose value is node,
// or nil at the top of a document or inside a sequence.
func (w walker) walk(path yamlpath.Path, owner, node *yaml.Node, typ schema.Type) []Diagnostic {
	if typ == nil || node.Kind == yaml.AliasNode || isNull(node) {
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		diags := w.duplicateKeys(path, node)
		switch t := typ.(type) {
		case *schema.Map:
			return append(diags, w.mapEntries(path, node, t)...)
		case *schema.Bean:
			return append(diags, w.beanEntries(path, owner, node, t)...)
		default:
			return append(diags, w.expectButFound(path, node, typ))
		}

	case yaml.SequenceNode:
		t, ok := typ.(*schema.Sequence)
		if !ok {
			return []Diagnostic{w.expectButFound(path, node, typ)}
		}
		var diags []Diagnostic
		for i, el := range node.Content {
			diags = append(diags, w.walk(path.Append(yamlpath.Index(i)), nil, el, t.Element)...)
		}
		return diags

	case yaml.ScalarNode:
		t, ok := typ.(*schema.Atomic)
		if !ok {
			return []Diagnostic{w.expectButFound(path, node, typ)}
		}
		if d, bad := w.parseScalar(path, node, t); bad {
			return []Diagnostic{d}
		}
	}

	return nil
}

func (w walker) mapEntries(path yamlpath.Path, node *yaml.Node, t *schema.Map) []Diagnostic {
	var diags []Diagnostic
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			diags = append(diags, w.diag(CodeExpectScalar, key, path,
				"Expecting a 'Scalar' node but got a '"+nodeKindName(key)+"' node").Build())
			continue
		}
		child := path.Append(yamlpath.Key(key.Value))
		diags = append(diags, w.walk(child, nil, key, t.Key)...)
		diags = append(diags, w.walk(child, key, value, t.Value)...)
	}
	return diags
}

func (w walker) beanEntries(path yamlpath.Path, owner, node *yaml.Node, t *schema.Bean) []Diagnostic {
	diags := w.missingProperties(path, owner, node, t)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			diags = append(diags, w.diag(CodeExpectScalar, key, path,
				"Expecting a 'Scalar' node but got a '"+nodeKindName(key)+"' node").Build())
			continue
		}

		child := path.Append(yamlpath.Key(key.Value))
		prop, ok := t.Property(key.Value)
		if !ok {
			diags = append(diags, w.diag(CodeUnknownProperty, key, child,
				fmt.Sprintf("Unknown property '%s' for type '%s'", key.Value, t)).
				WithFix(&FixData{Kind: FixDelete, Title: fmt.Sprintf("Remove property '%s'", key.Value)}).
				Build())
			continue
		}

		if prop.Deprecated {
			diags = append(diags, w.deprecated(child, key, t, prop))
		}
		diags = append(diags, w.walk(child, key, value, prop.Type)...)
	}

	return diags
}

func (w walker) deprecated(path yamlpath.Path, key *yaml.Node, t *schema.Bean, prop *schema.Property) Diagnostic {
	message := prop.DeprecationMessage
	if message == "" {
		message = fmt.Sprintf("Property '%s' of type '%s' is deprecated", prop.Name, t)
		if prop.Replacement != "" {
			message += fmt.Sprintf(": Use '%s' instead", prop.Replacement)
		}
	}

	b := w.diag(CodeDeprecatedProperty, key, path, message)
	if prop.Replacement == "" {
		return b.Build()
	}
	replacement, err := yamlpath.Decode(prop.Replacement)
	if err != nil || replacement.IsEmpty() {
		return b.Build()
	}
	// Replacements name a sibling path relative to the enclosing bean.
	newPath := path.DropLast(1).Append(replacement.Segments()...)
	return b.WithFix(&FixData{
		Kind:    FixRename,
		Title:   fmt.Sprintf("Change to '%s'", replacement),
		NewPath: newPath,
	}).Build()
}

// missingProperties reports required properties that are absent, but only
// when every present key is known, since an unknown key may be a misspelling
// of a missing one.
func (w walker) missingProperties(path yamlpath.Path, owner, node *yaml.Node, t *schema.Bean) []Diagnostic {
	present := make(map[string]bool, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode {
			continue
		}
		if _, ok := t.Property(key.Value); !ok {
			return nil
		}
		present[key.Value] = true
	}

	var missing []string
	for _, prop := range t.Properties() {
		if prop.Required && !present[prop.Name] {
			missing = append(missing, prop.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)

	var message string
	if len(missing) == 1 {
		message = fmt.Sprintf("Property '%s' is required for '%s'", missing[0], t)
	} else {
		message = fmt.Sprintf("Properties [%s] are required for '%s'", strings.Join(missing, ", "), t)
	}

	paths := make([]yamlpath.Path, len(missing))
	for i, name := range missing {
		paths[i] = path.Append(yamlpath.Key(name))
	}

	target := node
	if owner != nil {
		target = owner
	}
	return []Diagnostic{w.diag(CodeMissingProperty, target, path, message).
		WithFix(&FixData{Kind: FixCreate, Title: "Add missing properties", Paths: paths}).
		Build()}
}

func (w walker) duplicateKeys(path yamlpath.Path, node *yaml.Node) []Diagnostic {
	seen := make(map[string]int)
	for i := 0; i < len(node.Content); i += 2 {
		if key := node.Content[i]; key.Kind == yaml.ScalarNode {
			seen[key.Value]++
		}
	}

	var diags []Diagnostic
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind == yaml.ScalarNode && seen[key.Value] > 1 {
			diags = append(diags, w.diag(CodeDuplicateKey, key, path.Append(yamlpath.Key(key.Value)),
				fmt.Sprintf("Duplicate key '%s'", key.Value)).Build())
		}
	}
	return diags
}

func (w walker) parseScalar(path yamlpath.Path, node *yaml.Node, t *schema.Atomic) (Diagnostic, bool) {
	_, err := t.Parse(node.Value)
	if err == nil {
		return Diagnostic{}, false
	}

	message := err.Error()
	if message == "" {
		message = fmt.Sprintf("Couldn't parse as '%s'", t)
	}
	b := w.diag(CodeValueTypeMismatch, node, path, message)

	var valueErr *schema.ValueError
	if errors.As(err, &valueErr) && valueErr.Replacement != "" {
		b.WithFix(&FixData{
			Kind:        FixReplaceValue,
			Title:       fmt.Sprintf("Replace with '%s'", valueErr.Replacement),
			Replacement: valueErr.Replacement,
		})
	}
	return b.Build(), true
}

func (w walker) expectButFound(path yamlpath.Path, node *yaml.Node, typ schema.Type) Diagnostic {
	var code, expected string
	switch t := typ.(type) {
	case *schema.Atomic:
		code, expected = CodeExpectScalar, t.String()
	case *schema.Sequence:
		code, expected = CodeExpectSequence, "Sequence"
	default:
		code, expected = CodeExpectMapping, "Map"
	}
	return w.diag(code, node, path,
		fmt.Sprintf("Expecting a '%s' but found a '%s'", expected, nodeKindName(node))).Build()
}
