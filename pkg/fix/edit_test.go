package fix_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/fix"
)

const digits = "0123456789"

// deleteText records the deletion of the first occurrence of s.
func deleteText(b *fix.EditBuilder, content, s string) {
	start := strings.Index(content, s)
	b.Delete(start, start+len(s))
}

func applyString(t *testing.T, b *fix.EditBuilder) string {
	t.Helper()
	out, err := b.Apply()
	require.NoError(t, err)
	return string(out)
}

func TestEditBuilder_DeletesAreOrderIndependent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		deletes []string
		want    string
	}{
		{"disjoint", []string{"123", "567"}, "0489"},
		{"disjoint reversed", []string{"567", "123"}, "0489"},
		{"prefix", []string{"012345", "345"}, "6789"},
		{"prefix reversed", []string{"345", "012345"}, "6789"},
		{"overlap", []string{"2345", "34567"}, "0189"},
		{"overlap reversed", []string{"34567", "2345"}, "0189"},
		{"triple", []string{"123", "234", "7"}, "05689"},
		{"triple shuffled", []string{"7", "234", "123"}, "05689"},
		{"adjacent", []string{"12", "34"}, "056789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := fix.NewEditBuilder([]byte(digits))
			for _, s := range tt.deletes {
				deleteText(b, digits, s)
			}
			assert.Equal(t, tt.want, applyString(t, b))
		})
	}
}

func TestEditBuilder_InsertionCursorTracking(t *testing.T) {
	t.Parallel()

	const text = "The fox jumps over the dog!"
	fox := strings.Index(text, "fox")
	dog := strings.Index(text, "dog")

	orders := [][]int{{0, 1, 2}, {2, 0, 1}, {0, 2, 1}}
	for _, order := range orders {
		b := fix.NewEditBuilder([]byte(text))
		for _, i := range order {
			switch i {
			case 0:
				b.Insert(fox, "quick ")
			case 1:
				b.Insert(fox, "brown ")
			case 2:
				b.Insert(dog, "lazy ")
			}
		}

		out := applyString(t, b)
		assert.Equal(t, "The quick brown fox jumps over the lazy dog!", out)

		cursor, ok := b.Selection()
		require.True(t, ok)
		assert.Equal(t, "The quick brown fox jumps over the lazy ", out[:cursor], "order %v", order)
	}
}

func TestEditBuilder_CursorFreeze(t *testing.T) {
	t.Parallel()

	text := "root:\n  name: x\n  end: true\n"
	terminator := strings.Index(text, "  end: true\n")
	nameKey := strings.Index(text, "name")

	b := fix.NewEditBuilder([]byte(text))
	b.Insert(terminator, "  first: 1\n")
	b.FreezeCursor()
	b.Insert(terminator, "  second: 2\n")
	b.Insert(terminator, "  third: 3\n")
	b.Delete(terminator, len(text))
	b.Replace(nameKey, nameKey+len("name"), "title")

	out := applyString(t, b)
	assert.Equal(t, "root:\n  title: x\n  first: 1\n  second: 2\n  third: 3\n", out)

	cursor, ok := b.Selection()
	require.True(t, ok)
	assert.Equal(t, "root:\n  title: x\n  first: 1\n", out[:cursor])
}

func TestEditBuilder_NoCursorWhenFrozenFirst(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte("abc"))
	b.FreezeCursor()
	b.Insert(1, "x")

	_, ok := b.Selection()
	assert.False(t, ok)
	assert.Equal(t, "axbc", applyString(t, b))
}

func TestEditBuilder_DeleteAnchorsCursor(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte(digits))
	b.Insert(2, "ab")
	b.Delete(5, 7)

	cursor, ok := b.Selection()
	require.True(t, ok)
	out := applyString(t, b)
	assert.Equal(t, "01ab23478"+"9", out)
	assert.Equal(t, "01ab234", out[:cursor])
}

func TestEditBuilder_InsertInsideDeletedRange(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte(digits))
	b.Delete(2, 6)
	b.Insert(4, "X")
	b.Insert(6, "Y")

	assert.Equal(t, "01XY6789", applyString(t, b))
}

func TestEditBuilder_DeleteLineBackward(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		offset int
		want   string
	}{
		{"first line", "a: 1\nb: 2\nc: 3", 1, "b: 2\nc: 3"},
		{"middle line", "a: 1\nb: 2\nc: 3", 6, "a: 1\nc: 3"},
		{"last line", "a: 1\nb: 2\nc: 3", 12, "a: 1\nb: 2"},
		{"single line", "a: 1", 2, ""},
		{"line before trailing newline", "a\nb\n", 2, "a\n"},
		{"crlf", "a\r\nb\r\nc", 3, "a\r\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := fix.NewEditBuilder([]byte(tt.text))
			b.DeleteLineBackward(tt.offset)
			assert.Equal(t, tt.want, applyString(t, b))
		})
	}
}

func TestEditBuilder_DeleteLinesBackward(t *testing.T) {
	t.Parallel()

	text := "a:\n  b:\n    c: 1\nd: 2\n"
	b := fix.NewEditBuilder([]byte(text))
	b.DeleteLinesBackward(strings.Index(text, "  b:"), strings.Index(text, "c: 1"))

	assert.Equal(t, "a:\nd: 2\n", applyString(t, b))
}

func TestEditBuilder_InvalidOffsets(t *testing.T) {
	t.Parallel()

	for _, record := range []func(*fix.EditBuilder){
		func(b *fix.EditBuilder) { b.Insert(-1, "x") },
		func(b *fix.EditBuilder) { b.Insert(4, "x") },
		func(b *fix.EditBuilder) { b.Delete(2, 1) },
		func(b *fix.EditBuilder) { b.Delete(0, 9) },
	} {
		b := fix.NewEditBuilder([]byte("abc"))
		record(b)

		_, err := b.Apply()
		var verr *fix.ValidationError
		require.ErrorAs(t, err, &verr)

		_, _, err = b.AsReplacement()
		require.Error(t, err)
	}
}

func TestEditBuilder_AsReplacement(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte(digits))
	_, ok, err := b.AsReplacement()
	require.NoError(t, err)
	assert.False(t, ok)

	b.Delete(2, 4)
	b.Insert(7, "abc")
	b.Insert(5, "-")

	r, ok, err := b.AsReplacement()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fix.Replacement{Start: 2, End: 7, NewText: "4-56abc"}, r)

	full, err := b.Apply()
	require.NoError(t, err)
	assert.Equal(t, string(full), string(fix.ApplyReplacement([]byte(digits), r)))
}

func TestEditBuilder_Edits(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte(digits))
	b.Insert(8, "Z")
	b.Delete(1, 3)
	b.Delete(2, 5)
	b.Insert(3, "M")
	b.Insert(8, "Y")

	edits, err := b.Edits()
	require.NoError(t, err)
	assert.Equal(t, []fix.TextEdit{
		{StartOffset: 1, EndOffset: 5, NewText: "M"},
		{StartOffset: 8, EndOffset: 8, NewText: "ZY"},
	}, edits)
}

func TestEditBuilder_ForkAndAdopt(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte("abc"))
	b.Insert(0, ">")

	scratch := b.Fork()
	scratch.Insert(3, "<")
	scratch.FreezeCursor()
	assert.False(t, b.IsEmpty())

	discarded := b.Fork()
	discarded.Delete(0, 3)

	b.Adopt(scratch)
	assert.True(t, b.Frozen())
	assert.Equal(t, ">abc<", applyString(t, b))

	cursor, ok := b.Selection()
	require.True(t, ok)
	assert.Equal(t, 5, cursor)
}

func TestEditBuilder_InsertDetached(t *testing.T) {
	t.Parallel()

	b := fix.NewEditBuilder([]byte("tail"))
	b.Insert(0, "key:")
	b.Insert(0, " value")
	b.InsertDetached(0, "\n")

	assert.Equal(t, "key: value\ntail", applyString(t, b))
	cursor, ok := b.Selection()
	require.True(t, ok)
	assert.Equal(t, len("key: value"), cursor)

	only := fix.NewEditBuilder([]byte("x"))
	only.InsertDetached(1, "y")
	_, ok = only.Selection()
	assert.False(t, ok)
}
