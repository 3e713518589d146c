// Package configloader resolves the effective configuration from defaults,
// system, user and project files, the environment and command-line flags.
package configloader

import (
	"context"
	"fmt"
	"os"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
)

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	// WorkingDir is where the project config search starts. Defaults to
	// the current directory.
	WorkingDir string

	// ExplicitPath is a config file from --config. It is loaded on top of
	// the discovered files.
	ExplicitPath string

	IgnoreSystemConfig  bool
	IgnoreUserConfig    bool
	IgnoreProjectConfig bool
	IgnoreEnv           bool

	// LookupEnv replaces os.LookupEnv, mainly for tests.
	LookupEnv func(string) (string, bool)

	// CLIConfig holds flag values. They take highest precedence; zero
	// values are treated as unset.
	CLIConfig *config.Config
}

// LoadResult contains the resolved configuration and metadata.
type LoadResult struct {
	Config *config.Config

	Paths *ConfigPaths

	// LoadedFrom lists the files that were loaded, lowest precedence first.
	LoadedFrom []string

	// Warnings contains non-fatal issues encountered during loading.
	Warnings []string
}

// Load resolves the final configuration by merging all sources.
// Precedence (highest to lowest):
//  1. CLI flags (opts.CLIConfig)
//  2. Environment variables (YAMLFIX_*)
//  3. Explicit config file (opts.ExplicitPath)
//  4. Project config (.yamlfix.yml upward search)
//  5. User config ($XDG_CONFIG_HOME/yamlfix/config.yaml)
//  6. System config (/etc/yamlfix/config.yaml)
//  7. Defaults
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	logger := logging.FromContext(ctx)

	workDir := opts.WorkingDir
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	paths, err := DiscoverPaths(ctx, workDir)
	if err != nil {
		return nil, fmt.Errorf("discover paths: %w", err)
	}
	paths.Explicit = opts.ExplicitPath
	result := &LoadResult{Paths: paths}

	files := []struct {
		kind, path string
		skip       bool
	}{
		{"system", paths.System, opts.IgnoreSystemConfig},
		{"user", paths.User, opts.IgnoreUserConfig},
		{"project", paths.Project, opts.IgnoreProjectConfig},
		{"explicit", paths.Explicit, false},
	}

	var layers []*layer
	for _, f := range files {
		if f.skip || f.path == "" {
			continue
		}
		l, err := fileLayer(f.path)
		if err != nil {
			return nil, fmt.Errorf("load %s config %s: %w", f.kind, f.path, err)
		}
		layers = append(layers, l)
		result.LoadedFrom = append(result.LoadedFrom, f.path)
		logger.Debug("loaded config", logging.FieldConfig, f.path)
	}

	var env *envLayer
	if !opts.IgnoreEnv {
		lookup := opts.LookupEnv
		if lookup == nil {
			lookup = osLookup
		}
		if env, err = readEnv(lookup); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
		envPatch, err := mapLayer("environment", env.patch)
		if err != nil {
			return nil, err
		}
		layers = append(layers, envPatch)
	}

	cfg, err := mergeLayers(config.NewConfig(), layers...)
	if err != nil {
		return nil, err
	}
	if env != nil {
		for _, apply := range env.apply {
			apply(cfg)
		}
	}
	applyCLI(cfg, opts.CLIConfig)

	validation := Validate(cfg)
	if !validation.Valid() {
		return nil, &validation.Errors[0]
	}
	for _, w := range validation.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}

	result.Config = cfg
	return result, nil
}
