package configloader

import (
	"fmt"
	"os"
	"path/filepath"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/yaklabco/yamlfix/pkg/config"
)

// Configuration layers are merged as JSON merge patches (RFC 7386): a key a
// layer sets replaces the lower layer's value, nested mappings merge
// key by key, lists replace whole, and an explicit null clears a key. This
// lets a later layer set a boolean back to false.

// layer is one configuration source encoded as a JSON merge patch.
type layer struct {
	source string
	patch  []byte
}

// fileLayer reads a config file into a merge patch. A relative schema path
// is resolved against the file's directory. An empty file yields a nil
// layer.
func fileLayer(path string) (*layer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	// Decode into the typed config first so type errors name the field.
	typed, err := config.FromYAML(content)
	if err != nil {
		return nil, err
	}
	if v := ValidateWithFile(typed, path); !v.Valid() {
		return nil, &v.Errors[0]
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	if schema, ok := raw["schema"].(string); ok && schema != "" && !filepath.IsAbs(schema) {
		raw["schema"] = filepath.Join(filepath.Dir(path), schema)
	}

	patch, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return &layer{source: path, patch: patch}, nil
}

// mapLayer encodes an in-memory patch.
func mapLayer(source string, patch map[string]any) (*layer, error) {
	if len(patch) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", source, err)
	}
	return &layer{source: source, patch: data}, nil
}

// mergeLayers applies layers in order over base and decodes the result.
func mergeLayers(base *config.Config, layers ...*layer) (*config.Config, error) {
	doc, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}

	for _, l := range layers {
		if l == nil {
			continue
		}
		if doc, err = jsonpatch.MergePatch(doc, l.patch); err != nil {
			return nil, fmt.Errorf("merge %s: %w", l.source, err)
		}
	}

	merged := &config.Config{}
	if err := json.Unmarshal(doc, merged); err != nil {
		return nil, fmt.Errorf("decode merged config: %w", err)
	}
	if merged.Problems == nil {
		merged.Problems = make(map[string]config.ProblemConfig)
	}

	// Run-only fields do not travel through JSON.
	merged.Format = base.Format
	merged.Jobs = base.Jobs
	return merged, nil
}

// applyCLI overlays the flags a user set. Zero values mean "not set".
func applyCLI(cfg, cli *config.Config) {
	if cli == nil {
		return
	}
	if cli.Schema != "" {
		cfg.Schema = cli.Schema
	}
	if cli.Format != "" {
		cfg.Format = cli.Format
	}
	if cli.Jobs != 0 {
		cfg.Jobs = cli.Jobs
	}
	if cli.Fix {
		cfg.Fix = true
	}
	if cli.DryRun {
		cfg.DryRun = true
	}
	if cli.Strict {
		cfg.Strict = true
	}
	if cli.NoBackups {
		cfg.NoBackups = true
	}
	if cli.FixCodes != nil {
		cfg.FixCodes = cli.FixCodes
	}
	if cli.Extensions != nil {
		cfg.Extensions = cli.Extensions
	}
	if cli.Ignore != nil {
		cfg.Ignore = append(cfg.Ignore, cli.Ignore...)
	}
	if cli.MaxFixPasses != 0 {
		cfg.MaxFixPasses = cli.MaxFixPasses
	}
}
