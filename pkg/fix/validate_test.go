package fix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/fix"
)

func TestApplyEdits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		edits []fix.TextEdit
		want  string
	}{
		{"no edits", "abc", nil, "abc"},
		{"insert at start", "abc", []fix.TextEdit{{0, 0, "x"}}, "xabc"},
		{"replace middle", "a: 1\n", []fix.TextEdit{{3, 4, "2"}}, "a: 2\n"},
		{"multiple", "0123456789", []fix.TextEdit{{1, 2, ""}, {5, 5, "+"}, {9, 10, "!"}}, "0234+5678!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(fix.ApplyEdits([]byte(tt.input), tt.edits)))
		})
	}
}

func TestPrepareEdits(t *testing.T) {
	t.Parallel()

	sorted, err := fix.PrepareEdits([]fix.TextEdit{{5, 6, "b"}, {0, 1, "a"}}, 10)
	require.NoError(t, err)
	assert.Equal(t, []fix.TextEdit{{0, 1, "a"}, {5, 6, "b"}}, sorted)

	_, err = fix.PrepareEdits([]fix.TextEdit{{0, 4, "a"}, {2, 6, "b"}}, 10)
	var conflict *fix.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, conflict.Edit2.StartOffset)

	_, err = fix.PrepareEdits([]fix.TextEdit{{0, 11, ""}}, 10)
	var invalid *fix.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Error(), "exceeds content length")
}

func TestPrepareEditsFiltered(t *testing.T) {
	t.Parallel()

	edits := []fix.TextEdit{
		{StartOffset: 6, EndOffset: 9, NewText: "x"},
		{StartOffset: 0, EndOffset: 3, NewText: ""},
		{StartOffset: 2, EndOffset: 5, NewText: ""},
		{StartOffset: 7, EndOffset: 8, NewText: "y"},
	}

	accepted, skipped, merged, err := fix.PrepareEditsFiltered(edits, 10)
	require.NoError(t, err)
	assert.Equal(t, []fix.TextEdit{{0, 5, ""}, {6, 9, "x"}}, accepted)
	assert.Equal(t, []fix.TextEdit{{7, 8, "y"}}, skipped)
	assert.Equal(t, 1, merged)

	_, _, _, err = fix.PrepareEditsFiltered([]fix.TextEdit{{-1, 0, ""}}, 10)
	require.Error(t, err)
}
