// Package runner checks and fixes many YAML files concurrently.
package runner

import "github.com/yaklabco/yamlfix/pkg/config"

// Options controls discovery and processing.
type Options struct {
	// Paths are files or directories to process. Empty means the working
	// directory.
	Paths []string

	// WorkingDir resolves relative Paths and glob patterns. Empty means the
	// process working directory.
	WorkingDir string

	// Extensions lists the lowercase extensions, with leading dot, of YAML
	// files. Empty means config.DefaultExtensions.
	Extensions []string

	// DetectLanguage also accepts files that go-enry classifies as YAML by
	// name, such as ".clang-format" or "CITATION.cff".
	DetectLanguage bool

	// IncludeGlobs restricts discovered files to those matching a pattern.
	IncludeGlobs []string

	// ExcludeGlobs skips matching files and directories.
	ExcludeGlobs []string

	// IncludeVendor walks directories that go-enry considers vendored,
	// such as node_modules.
	IncludeVendor bool

	// FollowSymlinks walks symlinked directories.
	FollowSymlinks bool

	// Jobs bounds concurrent workers. Zero or negative means one per CPU.
	Jobs int

	// Config is the resolved configuration for the run.
	Config *config.Config
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return config.DefaultExtensions()
	}
	return o.Extensions
}

func (o Options) paths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}
