// Package yamlpath addresses nodes in a YAML document with immutable
// sequences of key and index segments.
//
// The textual form joins key segments with '.' and writes index segments as
// "[n]". Keys containing separators are written in quoted brackets, so
// "spring['a.b'][0].name" has the segments spring, a.b, [0] and name. Inside
// quotes a doubled quote character stands for itself.
package yamlpath

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedPath is returned when path text cannot be decoded.
var ErrMalformedPath = errors.New("malformed path")

// SegmentKind distinguishes key segments from index segments.
type SegmentKind int

const (
	// KeySegment selects a mapping entry by key.
	KeySegment SegmentKind = iota

	// IndexSegment selects a sequence item, or a document at the root.
	IndexSegment
)

// String returns the kind name.
func (k SegmentKind) String() string {
	if k == IndexSegment {
		return "index"
	}
	return "key"
}

// Segment is a single step of a Path.
type Segment struct {
	kind  SegmentKind
	key   string
	index int
}

// Key returns a key segment.
func Key(name string) Segment {
	return Segment{kind: KeySegment, key: name}
}

// Index returns an index segment.
func Index(i int) Segment {
	return Segment{kind: IndexSegment, index: i}
}

// Kind reports the segment kind.
func (s Segment) Kind() SegmentKind { return s.kind }

// IsKey reports whether s is a key segment.
func (s Segment) IsKey() bool { return s.kind == KeySegment }

// IsIndex reports whether s is an index segment.
func (s Segment) IsIndex() bool { return s.kind == IndexSegment }

// KeyName returns the key of a key segment, or "" for an index segment.
func (s Segment) KeyName() string { return s.key }

// IndexValue returns the index of an index segment, or -1 for a key segment.
func (s Segment) IndexValue() int {
	if s.kind != IndexSegment {
		return -1
	}
	return s.index
}

var plainKey = regexp.MustCompile(`^[^.\[\]'"]+$`)

// String renders the segment as it appears in a path after another segment.
func (s Segment) String() string {
	if s.kind == IndexSegment {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	if plainKey.MatchString(s.key) {
		return "." + s.key
	}
	switch {
	case !strings.Contains(s.key, "'"):
		return "['" + s.key + "']"
	case !strings.Contains(s.key, `"`):
		return `["` + s.key + `"]`
	default:
		return "['" + strings.ReplaceAll(s.key, "'", "''") + "']"
	}
}

// Path is an immutable sequence of segments. The zero value is the empty path.
type Path struct {
	segments []Segment
}

// New returns a path made of segs.
func New(segs ...Segment) Path {
	return Path{segments: slices.Clone(segs)}
}

// FromProperty converts a dotted property name such as "server.port" into a
// path of key segments.
func FromProperty(name string) Path {
	if name == "" {
		return Path{}
	}
	parts := strings.Split(name, ".")
	segs := make([]Segment, len(parts))
	for i, part := range parts {
		segs[i] = Key(part)
	}
	return Path{segments: segs}
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segments) }

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool { return len(p.segments) == 0 }

// Segment returns the i-th segment.
func (p Path) Segment(i int) (Segment, bool) {
	if i < 0 || i >= len(p.segments) {
		return Segment{}, false
	}
	return p.segments[i], true
}

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	return slices.Clone(p.segments)
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	return p.Segment(len(p.segments) - 1)
}

// Append returns a new path with segs added at the end.
func (p Path) Append(segs ...Segment) Path {
	return Path{segments: append(slices.Clip(p.segments), segs...)}
}

// DropFirst returns the path without its first n segments.
func (p Path) DropFirst(n int) Path {
	n = max(0, min(n, len(p.segments)))
	return Path{segments: slices.Clip(p.segments[n:])}
}

// DropLast returns the path without its last n segments.
func (p Path) DropLast(n int) Path {
	n = max(0, min(n, len(p.segments)))
	return Path{segments: slices.Clip(p.segments[:len(p.segments)-n])}
}

// CommonPrefix returns the longest leading run of segments shared by p and
// other.
func (p Path) CommonPrefix(other Path) Path {
	n := 0
	for n < len(p.segments) && n < len(other.segments) && p.segments[n] == other.segments[n] {
		n++
	}
	return p.DropLast(len(p.segments) - n)
}

// HasPrefix reports whether prefix is a leading run of p.
func (p Path) HasPrefix(prefix Path) bool {
	return prefix.Len() <= p.Len() && p.CommonPrefix(prefix).Len() == prefix.Len()
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.segments, other.segments)
}

// String renders the path in its textual form. Decode(p.String()) yields a
// path equal to p.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p.segments {
		text := seg.String()
		if i == 0 && seg.IsKey() && strings.HasPrefix(text, ".") {
			text = text[1:]
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	decoded, err := Decode(string(text))
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// Decode parses the textual form of a path. The empty string is the empty
// path.
func Decode(text string) (Path, error) {
	var segs []Segment
	pos := 0
	needKey := false

	for pos < len(text) {
		switch text[pos] {
		case '.':
			if pos == 0 || needKey {
				return Path{}, malformed(text, pos, "empty key")
			}
			needKey = true
			pos++
		case '[':
			if needKey {
				return Path{}, malformed(text, pos, "empty key")
			}
			seg, next, err := decodeBracket(text, pos)
			if err != nil {
				return Path{}, err
			}
			segs = append(segs, seg)
			pos = next
			if pos < len(text) && text[pos] != '.' && text[pos] != '[' {
				return Path{}, malformed(text, pos, "expected '.' or '['")
			}
		case ']':
			return Path{}, malformed(text, pos, "unbalanced ']'")
		default:
			if len(segs) > 0 && !needKey {
				return Path{}, malformed(text, pos, "expected '.' or '['")
			}
			end := pos
			for end < len(text) && !strings.ContainsRune(".[]", rune(text[end])) {
				end++
			}
			if strings.ContainsAny(text[pos:end], `'"`) {
				return Path{}, malformed(text, pos, "quotes require brackets")
			}
			segs = append(segs, Key(text[pos:end]))
			needKey = false
			pos = end
		}
	}

	if needKey {
		return Path{}, malformed(text, len(text), "empty key")
	}

	return Path{segments: segs}, nil
}

func decodeBracket(text string, open int) (Segment, int, error) {
	body := text[open+1:]

	if len(body) > 0 && (body[0] == '\'' || body[0] == '"') {
		key, after, ok := unquote(text, open+2, body[0])
		if !ok {
			return Segment{}, 0, malformed(text, open, "unterminated quote")
		}
		if after >= len(text) || text[after] != ']' {
			return Segment{}, 0, malformed(text, open, "unbalanced '['")
		}
		return Key(key), after + 1, nil
	}

	closing := strings.IndexByte(body, ']')
	if closing < 0 || strings.IndexByte(body[:closing], '[') >= 0 {
		return Segment{}, 0, malformed(text, open, "unbalanced '['")
	}

	index, err := strconv.Atoi(body[:closing])
	if err != nil || index < 0 {
		return Segment{}, 0, malformed(text, open, fmt.Sprintf("invalid index %q", body[:closing]))
	}

	return Index(index), open + 1 + closing + 1, nil
}

// unquote reads a quoted key starting at from, just past the opening quote.
// A doubled quote stands for one quote character. It returns the key and the
// offset after the closing quote.
func unquote(text string, from int, quote byte) (string, int, bool) {
	var sb strings.Builder
	for pos := from; pos < len(text); pos++ {
		if text[pos] != quote {
			sb.WriteByte(text[pos])
			continue
		}
		if pos+1 < len(text) && text[pos+1] == quote {
			sb.WriteByte(quote)
			pos++
			continue
		}
		return sb.String(), pos + 1, true
	}
	return "", 0, false
}

func malformed(text string, pos int, reason string) error {
	return fmt.Errorf("%w: %q at %d: %s", ErrMalformedPath, text, pos, reason)
}
