package runner

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// matcher tests slash-separated relative paths against glob patterns. "*"
// stays within one path element and "**" spans elements. A pattern without
// a slash also matches the base name.
type matcher struct {
	full []glob.Glob
	base []glob.Glob
}

func compileGlobs(patterns []string) (*matcher, error) {
	m := &matcher{}
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}

		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		m.full = append(m.full, g)

		// "dir/**" also names dir itself and "**/x" also matches a
		// top-level x.
		if trimmed, ok := strings.CutSuffix(pattern, "/**"); ok && trimmed != "" {
			m.full = append(m.full, glob.MustCompile(trimmed, '/'))
		}
		if trimmed, ok := strings.CutPrefix(pattern, "**/"); ok && trimmed != "" {
			m.full = append(m.full, glob.MustCompile(trimmed, '/'))
		}
		if !strings.Contains(pattern, "/") {
			m.base = append(m.base, g)
		}
	}
	return m, nil
}

func (m *matcher) empty() bool {
	return m == nil || len(m.full) == 0
}

func (m *matcher) match(rel string) bool {
	if m == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range m.full {
		if g.Match(rel) {
			return true
		}
	}
	base := path.Base(rel)
	for _, g := range m.base {
		if g.Match(base) {
			return true
		}
	}
	return false
}
