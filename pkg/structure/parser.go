package structure

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yaklabco/yamlfix/pkg/document"
)

var (
	keyLinePattern      = regexp.MustCompile(`^("[^"]*"|'[^']*'|\w[\w.\-]*):( .*|$)`)
	seqLinePattern      = regexp.MustCompile(`^-( .*|$)`)
	docSeparatorPattern = regexp.MustCompile(`^(---|\.\.\.)\s*(#.*)?$`)
	docPreamblePattern  = regexp.MustCompile(`^(\s*#|%)`)
)

// seqContentShift is the column distance between a "-" and the content that
// follows it on the same line.
const seqContentShift = 2

// Tree is the outline of a YAML stream.
type Tree struct {
	doc   *document.Document
	nodes []*Node
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[0] }

// Source returns the document the tree was built from.
func (t *Tree) Source() *document.Document { return t.doc }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Documents returns the doc nodes in stream order.
func (t *Tree) Documents() []*Node { return t.Root().Children() }

// Doc returns the i-th document.
func (t *Tree) Doc(i int) (*Node, bool) { return t.Root().Child(i) }

// Find returns the deepest node whose subtree contains offset.
func (t *Tree) Find(offset int) *Node { return t.Root().Find(offset) }

// Dump renders the tree for debugging, one node per line.
func (t *Tree) Dump() string {
	var sb strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fmt.Fprintf(&sb, "%s%s(%d): %s\n", strings.Repeat("  ", depth), n.kind, n.indent, n.Text())
		for _, child := range n.Children() {
			walk(child, depth+1)
		}
	}
	walk(t.Root(), 0)
	return sb.String()
}

// line is a cursor over one source line whose indentation mark can be moved
// past a sequence dash.
type line struct {
	info   document.LineInfo
	text   string
	indent int
}

func (l line) rest() string {
	return l.text[min(l.indent, len(l.text)):]
}

func (l line) offset() int {
	return l.info.StartOffset + max(l.indent, 0)
}

func (l line) shifted(by int) line {
	l.indent = min(l.indent+by, len(l.text))
	return l
}

type parser struct {
	tree *Tree
	root *Node
}

// Parse builds the outline of doc. It never fails: lines that are not
// recognized become raw nodes under the current parent.
func Parse(doc *document.Document) *Tree {
	tree := &Tree{doc: doc}
	p := &parser{tree: tree}
	p.root = p.newNode(KindRoot, noParent, 0, 0, 0)

	lineNo := 0
	for lineNo < doc.LineCount() && docPreamblePattern.MatchString(doc.LineText(lineNo)) {
		lineNo++
	}

	parent := p.root
	if lineNo >= doc.LineCount() || !docSeparatorPattern.MatchString(doc.LineText(lineNo)) {
		parent = p.newNode(KindDoc, p.root.id, 0, 0, 0)
	}

	for ; lineNo < doc.LineCount(); lineNo++ {
		info, _ := doc.Line(lineNo)
		current := line{info: info, text: doc.LineText(lineNo), indent: doc.LineIndentation(lineNo)}
		if current.indent < 0 {
			p.newNode(KindRaw, parent.id, -1, info.StartOffset, info.NewlineStart)
			continue
		}
		parent = p.parseLine(parent, current, true)
	}

	return tree
}

func (p *parser) parseLine(parent *Node, l line, createRaw bool) *Node {
	text := l.rest()
	indent := l.indent

	switch {
	case docSeparatorPattern.MatchString(text):
		return p.newNode(KindDoc, p.root.id, 0, l.info.StartOffset, l.info.NewlineStart)

	case keyLinePattern.MatchString(text):
		parent = dropToLevel(parent, func(n *Node) bool { return n.indent < indent })
		key := keyLinePattern.FindStringSubmatch(text)[1]
		node := p.newNode(KindKey, parent.id, indent, l.offset(), l.info.NewlineStart)
		node.colon = node.start + len(key)
		node.keyText = unquoteKey(key)
		return node

	case seqLinePattern.MatchString(text):
		parent = dropToLevel(parent, func(n *Node) bool {
			return n.indent < indent || (n.kind != KindSeq && n.indent <= indent)
		})
		node := p.newNode(KindSeq, parent.id, indent, l.offset(), l.info.NewlineStart)
		return p.parseLine(node, l.shifted(seqContentShift), false)

	default:
		if createRaw {
			p.newNode(KindRaw, parent.id, indent, l.offset(), l.info.NewlineStart)
		}
		return parent
	}
}

// dropToLevel climbs from parent through key and sequence nodes until one
// satisfies atLevel.
func dropToLevel(parent *Node, atLevel func(*Node) bool) *Node {
	for (parent.kind == KindKey || parent.kind == KindSeq) && !atLevel(parent) {
		parent = parent.Parent()
	}
	return parent
}

func (p *parser) newNode(kind Kind, parent, indent, start, end int) *Node {
	node := &Node{
		tree:   p.tree,
		id:     len(p.tree.nodes),
		parent: parent,
		kind:   kind,
		indent: indent,
		start:  start,
		end:    end,
		colon:  -1,
	}
	p.tree.nodes = append(p.tree.nodes, node)

	if parent != noParent {
		owner := p.tree.nodes[parent]
		switch kind {
		case KindSeq:
			node.ordinal = owner.SeqChildCount()
		case KindDoc:
			node.ordinal = len(owner.children)
		}
		owner.children = append(owner.children, node.id)
	}

	return node
}

func unquoteKey(key string) string {
	if len(key) >= 2 && (key[0] == '"' || key[0] == '\'') && key[len(key)-1] == key[0] {
		return key[1 : len(key)-1]
	}
	return key
}
