// Package structure builds a lightweight, indentation-based outline of a YAML
// document. The outline tolerates malformed input and records the byte
// regions of documents, keys and sequence items so that they can be edited
// in place.
package structure

import (
	"fmt"
	"strings"

	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// Kind identifies the role of a node in the outline.
type Kind int

const (
	// KindRoot is the single root of a tree; its children are documents.
	KindRoot Kind = iota

	// KindDoc is one YAML document in a stream.
	KindDoc

	// KindKey is a "key:" line.
	KindKey

	// KindSeq is a "- " sequence item.
	KindSeq

	// KindRaw is any other line, including blank and comment lines.
	KindRaw
)

// String returns the upper-case kind name used in tree dumps.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "ROOT"
	case KindDoc:
		return "DOC"
	case KindKey:
		return "KEY"
	case KindSeq:
		return "SEQ"
	case KindRaw:
		return "RAW"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const noParent = -1

// Node is one entry of a Tree. Nodes are owned by their tree and refer to
// relatives by index.
type Node struct {
	tree     *Tree
	id       int
	parent   int
	children []int
	kind     Kind
	indent   int
	start    int
	end      int
	colon    int
	keyText  string
	ordinal  int
}

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Indent returns the column of the node, or -1 for blank lines.
func (n *Node) Indent() int { return n.indent }

// Start returns the offset where the node begins.
func (n *Node) Start() int { return n.start }

// NodeEnd returns the end of the node's own line content.
func (n *Node) NodeEnd() int { return n.end }

// TreeEnd returns the end of the node's subtree.
func (n *Node) TreeEnd() int {
	if len(n.children) == 0 {
		return n.end
	}
	return n.tree.nodes[n.children[len(n.children)-1]].TreeEnd()
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	if n.parent == noParent {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns the direct children in document order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	for i, id := range n.children {
		out[i] = n.tree.nodes[id]
	}
	return out
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 0 || i >= len(n.children) {
		return nil, false
	}
	return n.tree.nodes[n.children[i]], true
}

// RealChildren returns the children that are not blank lines.
func (n *Node) RealChildren() []*Node {
	var out []*Node
	for _, id := range n.children {
		if child := n.tree.nodes[id]; child.indent >= 0 {
			out = append(out, child)
		}
	}
	return out
}

// FirstRealChild returns the first child that is not a blank line.
func (n *Node) FirstRealChild() *Node {
	for _, id := range n.children {
		if child := n.tree.nodes[id]; child.indent >= 0 {
			return child
		}
	}
	return nil
}

// Text returns the node's own line text starting at Start.
func (n *Node) Text() string {
	return n.tree.doc.TextBetween(n.start, n.end)
}

// Key returns the key of a key node with any surrounding quotes removed.
func (n *Node) Key() string { return n.keyText }

// ColonOffset returns the offset of the ':' of a key node, or -1.
func (n *Node) ColonOffset() int {
	if n.kind != KindKey {
		return -1
	}
	return n.colon
}

// Ordinal returns the document number of a doc node or the item number of a
// sequence node among its sequence siblings.
func (n *Node) Ordinal() int { return n.ordinal }

// SimpleValue returns the trimmed text after the colon on the key line.
func (n *Node) SimpleValue() string {
	if n.kind != KindKey {
		return ""
	}
	return strings.TrimSpace(n.tree.doc.TextBetween(n.colon+1, n.end))
}

// ValueWithRelativeIndent returns everything after the colon up to the end of
// the subtree, trailing whitespace trimmed, with the key's own indentation
// removed from continuation lines. The result can be appended directly after
// a new "key:" written at column zero.
func (n *Node) ValueWithRelativeIndent() string {
	if n.kind != KindKey {
		return ""
	}
	text := strings.TrimRight(n.tree.doc.TextBetween(n.colon+1, n.TreeEnd()), " \t\r\n")
	return StripIndentation(text, n.indent)
}

// IsInKey reports whether offset falls on the key part of a key node,
// including the colon.
func (n *Node) IsInKey(offset int) bool {
	return n.kind == KindKey && n.start <= offset && offset <= n.colon
}

// IsInValue reports whether offset falls after the colon of a key node and
// within its subtree.
func (n *Node) IsInValue(offset int) bool {
	return n.kind == KindKey && n.colon < offset && offset <= n.TreeEnd()
}

// NodeContains reports whether offset lies within the node's own line.
func (n *Node) NodeContains(offset int) bool {
	return n.start <= offset && offset <= n.end
}

// TreeContains reports whether offset lies within the node's subtree.
func (n *Node) TreeContains(offset int) bool {
	return n.start <= offset && offset <= n.TreeEnd()
}

// Find returns the deepest node whose subtree contains offset.
func (n *Node) Find(offset int) *Node {
	for _, id := range n.children {
		child := n.tree.nodes[id]
		if child.indent >= 0 && child.TreeContains(offset) {
			return child.Find(offset)
		}
	}
	return n
}

// Segment returns the path segment that selects n from its parent. Root and
// raw nodes have none.
func (n *Node) Segment() (yamlpath.Segment, bool) {
	switch n.kind {
	case KindKey:
		return yamlpath.Key(n.keyText), true
	case KindSeq, KindDoc:
		return yamlpath.Index(n.ordinal), true
	default:
		return yamlpath.Segment{}, false
	}
}

// Path returns the path from the enclosing document to n.
func (n *Node) Path() yamlpath.Path {
	var segs []yamlpath.Segment
	for cur := n; cur != nil && cur.kind != KindDoc && cur.kind != KindRoot; cur = cur.Parent() {
		if seg, ok := cur.Segment(); ok {
			segs = append(segs, seg)
		}
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return yamlpath.New(segs...)
}

// Document returns the enclosing doc node, or nil for the root.
func (n *Node) Document() *Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.kind == KindDoc {
			return cur
		}
	}
	return nil
}

// Navigate resolves one segment. On the root an index selects a document;
// elsewhere a key selects a key child and an index selects a sequence item.
func (n *Node) Navigate(seg yamlpath.Segment) (*Node, bool) {
	if n.kind == KindRoot {
		if !seg.IsIndex() {
			return nil, false
		}
		return n.Child(seg.IndexValue())
	}
	for _, id := range n.children {
		child := n.tree.nodes[id]
		if seg.IsKey() && child.kind == KindKey && child.keyText == seg.KeyName() {
			return child, true
		}
		if seg.IsIndex() && child.kind == KindSeq && child.ordinal == seg.IndexValue() {
			return child, true
		}
	}
	return nil, false
}

// SeqChildCount returns the number of sequence item children.
func (n *Node) SeqChildCount() int {
	count := 0
	for _, id := range n.children {
		if n.tree.nodes[id].kind == KindSeq {
			count++
		}
	}
	return count
}

// StripIndentation removes up to indent leading spaces from every line after
// the first.
func StripIndentation(text string, indent int) string {
	if indent <= 0 || !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " ")
		removed := min(indent, len(lines[i])-len(trimmed))
		lines[i] = lines[i][removed:]
	}
	return strings.Join(lines, "\n")
}

// ApplyIndentation prefixes every line after the first with indent spaces.
// Empty lines are left empty. CRLF delimiters are kept.
func ApplyIndentation(text string, indent int) string {
	if indent <= 0 || !strings.Contains(text, "\n") {
		return text
	}
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" && lines[i] != "\r" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// ChildWithKey returns the key child named key.
func (n *Node) ChildWithKey(key string) *Node {
	child, _ := n.Navigate(yamlpath.Key(key))
	return child
}

// LastRealChild returns the last child that is not a blank line.
func (n *Node) LastRealChild() *Node {
	for i := len(n.children) - 1; i >= 0; i-- {
		if child := n.tree.nodes[n.children[i]]; child.indent >= 0 {
			return child
		}
	}
	return nil
}
