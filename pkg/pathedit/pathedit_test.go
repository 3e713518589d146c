package pathedit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/document"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/pathedit"
	"github.com/yaklabco/yamlfix/pkg/structure"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

type fixture struct {
	tree    *structure.Tree
	builder *fix.EditBuilder
	editor  *pathedit.Editor
}

func newFixture(text string) *fixture {
	doc := document.New("file:///test.yml", []byte(text))
	tree := structure.Parse(doc)
	builder := fix.NewEditBuilder(doc.Bytes())
	return &fixture{
		tree:    tree,
		builder: builder,
		editor:  pathedit.New(tree, builder, pathedit.Options{}),
	}
}

func (f *fixture) doc(t *testing.T) *structure.Node {
	t.Helper()
	doc, ok := f.tree.Doc(0)
	require.True(t, ok)
	return doc
}

func (f *fixture) node(t *testing.T, path string) *structure.Node {
	t.Helper()
	node, ok := yamlpath.Traverse(mustPath(t, path), f.doc(t))
	require.True(t, ok, "path %s", path)
	return node
}

func (f *fixture) result(t *testing.T) string {
	t.Helper()
	out, err := f.builder.Apply()
	require.NoError(t, err)
	return string(out)
}

// beforeCursor returns the result text up to the cursor.
func (f *fixture) beforeCursor(t *testing.T) string {
	t.Helper()
	cursor, ok := f.builder.Selection()
	require.True(t, ok)
	return f.result(t)[:cursor]
}

func mustPath(t *testing.T, text string) yamlpath.Path {
	t.Helper()
	p, err := yamlpath.Decode(text)
	require.NoError(t, err)
	return p
}

func TestCreatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		text         string
		path         string
		value        string
		want         string
		beforeCursor string
	}{
		{
			name:         "sibling of existing key",
			text:         "server:\n  port: 8080\n",
			path:         "server.host",
			value:        " x",
			want:         "server:\n  port: 8080\n  host: x\n",
			beforeCursor: "server:\n  port: 8080\n  host: x",
		},
		{
			name:         "whole spine",
			text:         "a: 1\n",
			path:         "b.c.d",
			value:        " 5",
			want:         "a: 1\nb:\n  c:\n    d: 5\n",
			beforeCursor: "a: 1\nb:\n  c:\n    d: 5",
		},
		{
			name:         "empty value leaves cursor after colon",
			text:         "a: 1\n",
			path:         "b",
			want:         "a: 1\nb:\n",
			beforeCursor: "a: 1\nb:",
		},
		{
			name:         "multi-line value is re-indented",
			text:         "a: 1\n",
			path:         "b.c",
			value:        "\n  x: 1\n  y: 2",
			want:         "a: 1\nb:\n  c:\n    x: 1\n    y: 2\n",
			beforeCursor: "a: 1\nb:\n  c:\n    x: 1\n    y: 2",
		},
		{
			name:         "crlf document",
			text:         "a: 1\r\n",
			path:         "b.c",
			value:        "\n  x: 1\n  y: 2",
			want:         "a: 1\r\nb:\r\n  c:\r\n    x: 1\r\n    y: 2\r\n",
			beforeCursor: "a: 1\r\nb:\r\n  c:\r\n    x: 1\r\n    y: 2",
		},
		{
			name:         "sequence item appended",
			text:         "list:\n  - x\n",
			path:         "list[1]",
			value:        " y",
			want:         "list:\n  - x\n  - y\n",
			beforeCursor: "list:\n  - x\n  - y",
		},
		{
			name:         "key inside new sequence item",
			text:         "list:\n  - x\n",
			path:         "list[1].name",
			value:        " n",
			want:         "list:\n  - x\n  - name: n\n",
			beforeCursor: "list:\n  - x\n  - name: n",
		},
		{
			name:         "key next to keys of a sequence item",
			text:         "list:\n  - name: a\n",
			path:         "list[0].port",
			value:        " 1",
			want:         "list:\n  - name: a\n    port: 1\n",
			beforeCursor: "list:\n  - name: a\n    port: 1",
		},
		{
			name:         "empty document",
			text:         "",
			path:         "a.b",
			value:        " 1",
			want:         "a:\n  b: 1",
			beforeCursor: "a:\n  b: 1",
		},
		{
			name:         "document with only a preamble",
			text:         "# c\n",
			path:         "a",
			value:        " 1",
			want:         "a: 1\n# c\n",
			beforeCursor: "a: 1",
		},
		{
			name:         "after an explicit separator",
			text:         "---\n",
			path:         "a",
			value:        " 1",
			want:         "---\na: 1\n",
			beforeCursor: "---\na: 1",
		},
		{
			name:         "skips trailing blank lines and outdented comments",
			text:         "a:\n  b: 1\n\n# next\nc: 2\n",
			path:         "a.z",
			value:        " 0",
			want:         "a:\n  b: 1\n  z: 0\n\n# next\nc: 2\n",
			beforeCursor: "a:\n  b: 1\n  z: 0",
		},
		{
			name:         "key needing quotes",
			text:         "a: 1\n",
			path:         "['x y']",
			value:        " 1",
			want:         "a: 1\n\"x y\": 1\n",
			beforeCursor: "a: 1\n\"x y\": 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(tt.text)
			require.NoError(t, f.editor.CreatePath(f.doc(t), mustPath(t, tt.path), tt.value))
			assert.Equal(t, tt.want, f.result(t))
			assert.Equal(t, tt.beforeCursor, f.beforeCursor(t))

			reparsed := structure.Parse(document.New("", []byte(f.result(t))))
			doc, _ := reparsed.Doc(0)
			_, ok := yamlpath.Traverse(mustPath(t, tt.path), doc)
			assert.True(t, ok, "created path must be found again")
		})
	}
}

func TestCreatePath_ExistingPathMovesCursor(t *testing.T) {
	t.Parallel()

	text := "a:\n  b: 1\n"

	f := newFixture(text)
	require.NoError(t, f.editor.CreatePath(f.doc(t), mustPath(t, "a.b"), " 2"))
	assert.Equal(t, text, f.result(t))
	assert.Equal(t, "a:\n  b: ", f.beforeCursor(t))

	f = newFixture(text)
	require.NoError(t, f.editor.CreatePath(f.doc(t), mustPath(t, "a"), ""))
	assert.Equal(t, "a:\n  ", f.beforeCursor(t))
}

func TestCreatePath_Refused(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		path string
	}{
		{"scalar value in the way", "a: 1\n", "a.b"},
		{"scalar sequence item", "l:\n  - x\n", "l[0].b"},
		{"index past the end", "l:\n  - x\n", "l[3]"},
		{"key among sequence items", "l:\n  - x\n", "l.b"},
		{"index among keys", "a:\n  b: 1\n", "a[0]"},
		{"non-zero index in a new sequence", "a: 1\n", "b[2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(tt.text)
			err := f.editor.CreatePath(f.doc(t), mustPath(t, tt.path), " v")
			require.ErrorIs(t, err, pathedit.ErrNoEdit)
			assert.True(t, f.builder.IsEmpty())
		})
	}

	f := newFixture("a: 1\n")
	require.ErrorIs(t, f.editor.CreatePath(f.tree.Root(), mustPath(t, "b"), ""), pathedit.ErrNoEdit)
}

func TestInsertionOffsetAfter(t *testing.T) {
	t.Parallel()

	text := "a:\n  b:\n    c: 1\n\n  d: 2\ne: 3\n"
	f := newFixture(text)

	assert.Equal(t, len("a:\n  b:\n    c: 1"), f.editor.InsertionOffsetAfter(f.node(t, "a.b")))
	assert.Equal(t, len("a:\n  b:\n    c: 1\n\n  d: 2"), f.editor.InsertionOffsetAfter(f.node(t, "a")))
	assert.Equal(t, len(text)-1, f.editor.InsertionOffsetAfter(f.doc(t)))
	assert.Equal(t, len("a:\n  b:\n    c: 1\n\n  d: 2\ne: 3"), f.editor.InsertionOffsetAfter(f.node(t, "e")))
}

func TestDeletePathSpine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		path   string
		prefix int
		want   string
	}{
		{
			name: "lone children climb to the top",
			text: "a:\n  b:\n    c: 1\nd: 2\n",
			path: "a.b.c",
			want: "d: 2\n",
		},
		{
			name:   "stops at the shared prefix",
			text:   "a:\n  b:\n    c: 1\nd: 2\n",
			path:   "a.b.c",
			prefix: 1,
			want:   "a:\nd: 2\n",
		},
		{
			name: "stops at a parent with siblings",
			text: "a:\n  b: 1\n  c: 2\n",
			path: "a.b",
			want: "a:\n  c: 2\n",
		},
		{
			name: "last line without newline",
			text: "a: 1\nb: 2",
			path: "b",
			want: "a: 1",
		},
		{
			name: "key sharing the line of a dash",
			text: "l:\n  - a: 1\n    b: 2\n",
			path: "l[0].a",
			want: "l:\n  - b: 2\n",
		},
		{
			name: "sequence item",
			text: "l:\n  - x\n  - y\n",
			path: "l[0]",
			want: "l:\n  - y\n",
		},
		{
			name: "single line document",
			text: "a: 1",
			path: "a",
			want: "",
		},
		{
			name: "outdented comment survives",
			text: "a:\n  b: 1\n# about c\nc: 2\n",
			path: "a.b",
			want: "# about c\nc: 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(tt.text)
			path := mustPath(t, tt.path)
			require.NoError(t, f.editor.DeletePathSpine(f.node(t, tt.path), path, tt.prefix))
			assert.Equal(t, tt.want, f.result(t))
		})
	}
}

func TestDeletePathSpine_NeverDeletesDocuments(t *testing.T) {
	t.Parallel()

	f := newFixture("a: 1\n")
	require.ErrorIs(t, f.editor.DeletePathSpine(f.doc(t), yamlpath.Path{}, 0), pathedit.ErrNoEdit)
	require.ErrorIs(t, f.editor.DeletePathSpine(f.tree.Root(), yamlpath.Path{}, 0), pathedit.ErrNoEdit)
	assert.True(t, f.builder.IsEmpty())

	f = newFixture("---\na: 1\n---\nb: 2\n")
	doc, ok := f.tree.Doc(1)
	require.True(t, ok)
	b := doc.ChildWithKey("b")
	require.NotNil(t, b)
	require.NoError(t, f.editor.DeletePathSpine(b, mustPath(t, "b"), 0))
	assert.Equal(t, "---\na: 1\n---\n", f.result(t))
}

func TestRenamePath_FastPath(t *testing.T) {
	t.Parallel()

	f := newFixture("server:\n  port: 1\n")
	require.NoError(t, f.editor.RenamePath(f.doc(t), mustPath(t, "server.port"), mustPath(t, "server.listen")))
	assert.Equal(t, "server:\n  listen: 1\n", f.result(t))
	assert.Equal(t, "server:\n  listen", f.beforeCursor(t))
}

func TestRenamePath_MovesValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		text         string
		from, to     string
		want         string
		beforeCursor string
	}{
		{
			name:         "into an existing mapping",
			text:         "old-port: 80\nserver:\n  host: x\n",
			from:         "old-port",
			to:           "server.port",
			want:         "server:\n  host: x\n  port: 80\n",
			beforeCursor: "server:\n  host: x\n  port:",
		},
		{
			name:         "below the shared prefix",
			text:         "a:\n  b:\n    c: 1\n    d: 2\n",
			from:         "a.b.c",
			to:           "a.x.c",
			want:         "a:\n  b:\n    d: 2\n  x:\n    c: 1\n",
			beforeCursor: "a:\n  b:\n    d: 2\n  x:\n    c:",
		},
		{
			name:         "subtree carried along",
			text:         "spring:\n  old:\n    x: 1\nother: 2\n",
			from:         "spring.old",
			to:           "cfg.new",
			want:         "other: 2\ncfg:\n  new:\n    x: 1\n",
			beforeCursor: "other: 2\ncfg:\n  new:",
		},
		{
			name:         "parent emptied by the move",
			text:         "a:\n  b: 1\n",
			from:         "a.b",
			to:           "a.c.d",
			want:         "a:\n  c:\n    d: 1\n",
			beforeCursor: "a:\n  c:\n    d:",
		},
		{
			name:         "crlf line breaks kept",
			text:         "a:\r\n  b:\r\n    c: 1\r\nz: 2\r\n",
			from:         "a.b.c",
			to:           "x.y",
			want:         "z: 2\r\nx:\r\n  y: 1\r\n",
			beforeCursor: "z: 2\r\nx:\r\n  y:",
		},
		{
			name:         "whole document replaced",
			text:         "a:\n  b:\n    c: 1\n",
			from:         "a.b.c",
			to:           "x.y",
			want:         "x:\n  y: 1\n",
			beforeCursor: "x:\n  y:",
		},
		{
			name:         "whole document without final newline",
			text:         "a:\n  b:\n    c: 1",
			from:         "a.b.c",
			to:           "x.y",
			want:         "x:\n  y: 1",
			beforeCursor: "x:\n  y:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(tt.text)
			require.NoError(t, f.editor.RenamePath(f.doc(t), mustPath(t, tt.from), mustPath(t, tt.to)))
			assert.Equal(t, tt.want, f.result(t))
			assert.Equal(t, tt.beforeCursor, f.beforeCursor(t))
			assert.True(t, f.builder.Frozen())
		})
	}
}

func TestRenamePath_Refused(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to string
	}{
		{"new path inside old", "a", "a.b"},
		{"old path inside new", "a.b", "a"},
		{"same path", "a.b", "a.b"},
		{"missing old path", "a.zz", "a.c"},
		{"target exists", "a.b", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture("a:\n  b: 1\nc: 2\n")
			err := f.editor.RenamePath(f.doc(t), mustPath(t, tt.from), mustPath(t, tt.to))
			require.ErrorIs(t, err, pathedit.ErrNoEdit)
			assert.True(t, f.builder.IsEmpty())
		})
	}
}

func TestEncodeKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "port", pathedit.EncodeKey("port"))
	assert.Equal(t, "log.level", pathedit.EncodeKey("log.level"))
	assert.Equal(t, `"x y"`, pathedit.EncodeKey("x y"))
	assert.Equal(t, `"-lead"`, pathedit.EncodeKey("-lead"))
}
