package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// yamlLanguage is the go-enry language name of YAML files.
const yamlLanguage = "YAML"

// Discover returns the sorted, de-duplicated absolute paths of the YAML
// files named by opts. Explicit file arguments are taken as they are, apart
// from the exclude patterns; directories are walked.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	d, err := newDiscoverer(opts)
	if err != nil {
		return nil, err
	}

	for _, input := range opts.paths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		abs := input
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(d.workDir, abs)
		}
		abs = filepath.Clean(abs)

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", input, err)
		}

		if !info.IsDir() {
			if !d.exclude.match(d.rel(abs)) {
				d.add(abs)
			}
			continue
		}
		if err := d.walk(ctx, abs); err != nil {
			return nil, err
		}
	}

	slices.Sort(d.files)
	return d.files, nil
}

type discoverer struct {
	opts       Options
	workDir    string
	extensions []string
	include    *matcher
	exclude    *matcher
	seen       map[string]bool
	files      []string
}

func newDiscoverer(opts Options) (*discoverer, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	include, err := compileGlobs(opts.IncludeGlobs)
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs(opts.ExcludeGlobs)
	if err != nil {
		return nil, err
	}

	extensions := make([]string, 0, len(opts.extensions()))
	for _, ext := range opts.extensions() {
		extensions = append(extensions, strings.ToLower(ext))
	}

	return &discoverer{
		opts:       opts,
		workDir:    workDir,
		extensions: extensions,
		include:    include,
		exclude:    exclude,
		seen:       make(map[string]bool),
	}, nil
}

func (d *discoverer) rel(path string) string {
	rel, err := filepath.Rel(d.workDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (d *discoverer) add(path string) {
	if d.seen[path] {
		return
	}
	d.seen[path] = true
	d.files = append(d.files, path)
}

func (d *discoverer) walk(ctx context.Context, root string) error {
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrPermission) {
				return nil
			}
			return walkErr
		}

		rel := d.rel(path)
		hidden := path != root && strings.HasPrefix(entry.Name(), ".")

		if entry.IsDir() {
			if path == root {
				return nil
			}
			if hidden || d.exclude.match(rel) || d.vendored(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil //nolint:nilerr // broken symlinks are skipped
			}
			info, err := os.Stat(target)
			if err != nil {
				return nil //nolint:nilerr // unreadable targets are skipped
			}
			if info.IsDir() {
				if !d.opts.FollowSymlinks {
					return nil
				}
				// Walk the target; WalkDir does not descend through a
				// symlinked root.
				return d.walk(ctx, target)
			}
		}

		if d.wants(path, rel, hidden) {
			d.add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}

func (d *discoverer) vendored(rel string) bool {
	return !d.opts.IncludeVendor && enry.IsVendor(rel+"/")
}

// wants reports whether a walked file is a YAML file to process.
func (d *discoverer) wants(path, rel string, hidden bool) bool {
	if d.exclude.match(rel) {
		return false
	}
	if !d.include.empty() && !d.include.match(rel) {
		return false
	}

	if slices.Contains(d.extensions, strings.ToLower(filepath.Ext(path))) {
		return !hidden
	}
	return d.opts.DetectLanguage && IsYAMLName(path)
}

// IsYAMLName reports whether go-enry classifies the file name as YAML,
// either by extension or by a well-known file name.
func IsYAMLName(path string) bool {
	base := filepath.Base(path)
	if slices.Contains(enry.GetLanguagesByFilename(base, nil, nil), yamlLanguage) {
		return true
	}
	return slices.Contains(enry.GetLanguagesByExtension(base, nil, nil), yamlLanguage)
}
