package fix

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff is a line-based unified diff between two versions of a file.
type Diff struct {
	Path      string
	Original  []byte
	Modified  []byte
	Hunks     []DiffHunk
	Additions int
	Deletions int
}

// DiffHunk is one "@@" section of a unified diff. Line numbers are 1-based.
type DiffHunk struct {
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
	Lines         []DiffLine
}

// DiffLine is a single line within a hunk.
type DiffLine struct {
	Kind    DiffLineKind
	Content string
}

// DiffLineKind tells context, added and removed lines apart.
type DiffLineKind int

const (
	// DiffLineContext is an unchanged line.
	DiffLineContext DiffLineKind = iota

	// DiffLineAdd is a line present only in the modified version.
	DiffLineAdd

	// DiffLineRemove is a line present only in the original version.
	DiffLineRemove
)

const contextLines = 3

// GenerateDiff computes a unified diff of original and modified. It returns
// nil when both have the same lines.
func GenerateDiff(path string, original, modified []byte) *Diff {
	ops := lineOps(splitLines(original), splitLines(modified))

	hunks := groupIntoHunks(ops)
	if len(hunks) == 0 {
		return nil
	}

	d := &Diff{Path: path, Original: original, Modified: modified, Hunks: hunks}
	for _, op := range ops {
		switch op.Kind {
		case DiffLineAdd:
			d.Additions++
		case DiffLineRemove:
			d.Deletions++
		}
	}
	return d
}

// GitHeader returns the "diff --git" header line.
func (d *Diff) GitHeader() string {
	if d == nil {
		return ""
	}
	path := strings.TrimPrefix(d.Path, "/")
	return fmt.Sprintf("diff --git a/%s b/%s", path, path)
}

// String renders the diff in unified format without the git header.
func (d *Diff) String() string {
	if !d.HasChanges() {
		return ""
	}

	path := strings.TrimPrefix(d.Path, "/")

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, hunk := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n",
			hunk.OriginalStart, hunk.OriginalCount, hunk.ModifiedStart, hunk.ModifiedCount)
		for _, line := range hunk.Lines {
			sb.WriteByte(" +-"[line.Kind])
			sb.WriteString(line.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FullString renders the diff including the git header.
func (d *Diff) FullString() string {
	if !d.HasChanges() {
		return ""
	}
	return d.GitHeader() + "\n" + d.String()
}

// HasChanges reports whether the diff has at least one hunk.
func (d *Diff) HasChanges() bool {
	return d != nil && len(d.Hunks) > 0
}

// splitLines splits content into lines, dropping the empty element produced
// by a trailing newline.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineOps runs a line-mode diff and flattens it into one op per line.
func lineOps(orig, mod []string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToRunes(joinLines(orig), joinLines(mod))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(a, b, false), lineArray)

	var ops []DiffLine
	for _, diff := range diffs {
		kind := DiffLineContext
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			kind = DiffLineAdd
		case diffmatchpatch.DiffDelete:
			kind = DiffLineRemove
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			ops = append(ops, DiffLine{Kind: kind, Content: strings.TrimSuffix(line, "\n")})
		}
	}
	return ops
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// groupIntoHunks gathers changed lines with contextLines of surrounding
// context, merging changes whose context would overlap.
func groupIntoHunks(ops []DiffLine) []DiffHunk {
	var hunks []DiffHunk

	i := 0
	for i < len(ops) {
		if ops[i].Kind == DiffLineContext {
			i++
			continue
		}

		start := max(0, i-contextLines)
		end := i
		for end < len(ops) {
			if ops[end].Kind != DiffLineContext {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].Kind == DiffLineContext {
				run++
			}
			if run == len(ops) || run-end > 2*contextLines {
				break
			}
			end = run
		}
		stop := min(len(ops), end+contextLines)

		hunks = append(hunks, buildHunk(ops, start, stop))
		i = stop
	}

	return hunks
}

func buildHunk(ops []DiffLine, start, stop int) DiffHunk {
	hunk := DiffHunk{OriginalStart: 1, ModifiedStart: 1}
	for _, op := range ops[:start] {
		if op.Kind != DiffLineAdd {
			hunk.OriginalStart++
		}
		if op.Kind != DiffLineRemove {
			hunk.ModifiedStart++
		}
	}

	hunk.Lines = append(hunk.Lines, ops[start:stop]...)
	for _, op := range hunk.Lines {
		if op.Kind != DiffLineAdd {
			hunk.OriginalCount++
		}
		if op.Kind != DiffLineRemove {
			hunk.ModifiedCount++
		}
	}
	return hunk
}
