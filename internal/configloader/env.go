package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/yaklabco/yamlfix/pkg/config"
)

// EnvVarPrefix is the prefix for all yamlfix environment variables.
const EnvVarPrefix = "YAMLFIX_"

type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeSlice
)

// envMapping binds an environment variable to either a persisted config key
// (merged like a config file layer) or a run-only field.
type envMapping struct {
	// key is the dotted config key of a persisted field.
	key string

	// apply sets a run-only field.
	apply func(cfg *config.Config, value any)

	typ         envFieldType
	description string
}

//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"SCHEMA":          {key: "schema", typ: envTypeString, description: "Schema definition file"},
	"EXTENSIONS":      {key: "extensions", typ: envTypeSlice, description: "Comma-separated YAML file extensions"},
	"IGNORE":          {key: "ignore", typ: envTypeSlice, description: "Comma-separated ignore patterns"},
	"INDENT_WIDTH":    {key: "indent_width", typ: envTypeInt, description: "Indentation for created keys"},
	"MAX_FIX_PASSES":  {key: "max_fix_passes", typ: envTypeInt, description: "Upper bound on fix passes per file"},
	"BACKUPS_ENABLED": {key: "backups.enabled", typ: envTypeBool, description: "Write backups when fixing: true or false"},
	"BACKUPS_MODE":    {key: "backups.mode", typ: envTypeString, description: "Backup mode: sidecar or none"},

	"FIX": {typ: envTypeBool, description: "Apply fixes: true or false",
		apply: func(c *config.Config, v any) { c.Fix = v.(bool) }},
	"DRY_RUN": {typ: envTypeBool, description: "Show fixes as a diff without writing: true or false",
		apply: func(c *config.Config, v any) { c.DryRun = v.(bool) }},
	"STRICT": {typ: envTypeBool, description: "Treat warnings as failures: true or false",
		apply: func(c *config.Config, v any) { c.Strict = v.(bool) }},
	"NO_BACKUPS": {typ: envTypeBool, description: "Disable backups: true or false",
		apply: func(c *config.Config, v any) { c.NoBackups = v.(bool) }},
	"FORMAT": {typ: envTypeString, description: "Output format: text, table, json, diff or summary",
		apply: func(c *config.Config, v any) { c.Format = config.OutputFormat(v.(string)) }},
	"JOBS": {typ: envTypeInt, description: "Number of parallel workers (0 = auto)",
		apply: func(c *config.Config, v any) { c.Jobs = v.(int) }},
	"FIX_CODES": {typ: envTypeSlice, description: "Comma-separated problem codes to fix",
		apply: func(c *config.Config, v any) { c.FixCodes = v.([]string) }},
}

// envLayer holds the values read from the environment.
type envLayer struct {
	// patch is a merge patch over the persisted configuration.
	patch map[string]any

	// apply sets the run-only fields.
	apply []func(*config.Config)
}

// readEnv parses the YAMLFIX_* variables.
func readEnv(lookup func(string) (string, bool)) (*envLayer, error) {
	layer := &envLayer{patch: make(map[string]any)}

	for _, suffix := range sortedEnvSuffixes() {
		mapping := envMappings[suffix]
		name := EnvVarPrefix + suffix
		raw, ok := lookup(name)
		if !ok || raw == "" {
			continue
		}

		value, err := parseEnvValue(mapping.typ, raw, name)
		if err != nil {
			return nil, err
		}

		if mapping.apply != nil {
			apply := mapping.apply
			layer.apply = append(layer.apply, func(c *config.Config) { apply(c, value) })
			continue
		}
		setDotted(layer.patch, mapping.key, value)
	}
	return layer, nil
}

func parseEnvValue(typ envFieldType, raw, name string) (any, error) {
	switch typ {
	case envTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", name, raw)
		}
		return b, nil
	case envTypeInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer for %s: %q", name, raw)
		}
		return i, nil
	case envTypeSlice:
		return parseSliceValue(raw), nil
	default:
		return raw, nil
	}
}

// setDotted stores value under a dotted key, creating nested maps.
func setDotted(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := m[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[part] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = value
}

// parseSliceValue splits a comma-separated value, trimming and dropping
// empty elements.
func parseSliceValue(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func sortedEnvSuffixes() []string {
	suffixes := make([]string, 0, len(envMappings))
	for suffix := range envMappings {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// ListEnvVars returns the supported environment variables with their
// descriptions.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		vars[EnvVarPrefix+suffix] = mapping.description
	}
	return vars
}

func osLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}
