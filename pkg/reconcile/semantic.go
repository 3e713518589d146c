package reconcile

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/yaklabco/yamlfix/pkg/document"
)

// Region is a half-open byte range of a document.
type Region struct {
	Start int
	End   int
}

// SyntaxError is a YAML syntax error located on a zero-based line, or -1
// when the parser did not report one.
type SyntaxError struct {
	Line    int
	Message string
	Err     error
}

func (e *SyntaxError) Error() string { return e.Err.Error() }

func (e *SyntaxError) Unwrap() error { return e.Err }

// SemanticFile is the yaml.v3 parse of a document. Documents holds every
// document decoded before a syntax error, if any.
type SemanticFile struct {
	Doc       *document.Document
	Documents []*yaml.Node
	Syntax    *SyntaxError
}

var yamlErrorLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// ParseSemantic decodes all documents of doc. It never fails; a syntax error
// is recorded on the result.
func ParseSemantic(doc *document.Document) *SemanticFile {
	file := &SemanticFile{Doc: doc}
	decoder := yaml.NewDecoder(bytes.NewReader(doc.Bytes()))

	for {
		var node yaml.Node
		err := decoder.Decode(&node)
		if errors.Is(err, io.EOF) {
			return file
		}
		if err != nil {
			file.Syntax = newSyntaxError(err)
			return file
		}
		file.Documents = append(file.Documents, &node)
	}
}

func newSyntaxError(err error) *SyntaxError {
	se := &SyntaxError{Line: -1, Message: err.Error(), Err: err}
	if m := yamlErrorLine.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			se.Line = n - 1
			se.Message = m[2]
		}
	}
	return se
}

// content returns the top-level node of a document node.
func content(docNode *yaml.Node) *yaml.Node {
	if docNode.Kind == yaml.DocumentNode {
		if len(docNode.Content) == 0 {
			return nil
		}
		return docNode.Content[0]
	}
	return docNode
}

// offsetOf converts a yaml.v3 one-based line and rune column to a byte
// offset.
func offsetOf(doc *document.Document, line, column int) int {
	info, ok := doc.Line(line - 1)
	if !ok {
		return doc.Len()
	}
	text := doc.LineText(line - 1)
	pos := 0
	for i := 1; i < column && pos < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return info.StartOffset + pos
}

// regionOf returns the text covered by a node. Collections extend to the end
// of their last descendant.
func regionOf(doc *document.Document, node *yaml.Node) Region {
	start := offsetOf(doc, node.Line, node.Column)

	switch node.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		end := start
		if len(node.Content) > 0 {
			end = max(end, regionOf(doc, node.Content[len(node.Content)-1]).End)
		}
		return Region{Start: start, End: end}
	case yaml.ScalarNode:
		return Region{Start: start, End: scalarEnd(doc, node, start)}
	default:
		return Region{Start: start, End: lineEnd(doc, start)}
	}
}

func scalarEnd(doc *document.Document, node *yaml.Node, start int) int {
	text := doc.Bytes()
	switch node.Style {
	case yaml.DoubleQuotedStyle:
		for i := start + 1; i < len(text); i++ {
			switch text[i] {
			case '\\':
				i++
			case '"':
				return i + 1
			}
		}
		return len(text)
	case yaml.SingleQuotedStyle:
		for i := start + 1; i < len(text); i++ {
			if text[i] != '\'' {
				continue
			}
			if i+1 < len(text) && text[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
		return len(text)
	case yaml.LiteralStyle, yaml.FoldedStyle:
		return lineEnd(doc, start)
	default:
		if start+len(node.Value) <= lineEnd(doc, start) &&
			string(text[start:start+len(node.Value)]) == node.Value {
			return start + len(node.Value)
		}
		return lineEnd(doc, start)
	}
}

func lineEnd(doc *document.Document, offset int) int {
	info, _ := doc.Line(doc.LineOfOffset(offset))
	return info.NewlineStart
}

// isNull reports whether a node is an empty or explicit null value.
func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

// nodeKindName names a node kind in messages.
func nodeKindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "Map"
	case yaml.SequenceNode:
		return "Sequence"
	case yaml.AliasNode:
		return "Alias"
	default:
		return "Scalar"
	}
}
