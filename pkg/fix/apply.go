package fix

import "bytes"

// ApplyEdits applies sorted, non-overlapping edits to content and returns
// the result. Use PrepareEdits or PrepareEditsFiltered to obtain such edits.
func ApplyEdits(content []byte, edits []TextEdit) []byte {
	if len(edits) == 0 {
		return content
	}

	size := len(content)
	for _, e := range edits {
		size += len(e.NewText) - (e.EndOffset - e.StartOffset)
	}

	var out bytes.Buffer
	out.Grow(max(size, 0))

	pos := 0
	for _, e := range edits {
		out.Write(content[pos:e.StartOffset])
		out.WriteString(e.NewText)
		pos = e.EndOffset
	}
	out.Write(content[pos:])

	return out.Bytes()
}

// ApplyReplacement applies a single replacement to content.
func ApplyReplacement(content []byte, r Replacement) []byte {
	return ApplyEdits(content, []TextEdit{{StartOffset: r.Start, EndOffset: r.End, NewText: r.NewText}})
}

// Edit converts the replacement to a TextEdit.
func (r Replacement) Edit() TextEdit {
	return TextEdit{StartOffset: r.Start, EndOffset: r.End, NewText: r.NewText}
}
