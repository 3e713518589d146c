package configloader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/internal/configloader"
	"github.com/yaklabco/yamlfix/pkg/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// isolated loads with only the project config search active.
func isolated(dir string) configloader.LoadOptions {
	return configloader.LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		LookupEnv:          noEnv,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := configloader.Load(context.Background(), isolated(t.TempDir()))
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, config.DefaultExtensions(), cfg.Extensions)
	assert.Equal(t, config.DefaultIndentWidth, cfg.IndentWidth)
	assert.True(t, cfg.Backups.Enabled)
	assert.Equal(t, "sidecar", cfg.Backups.Mode)
	assert.Equal(t, config.FormatText, cfg.Format)
	assert.Empty(t, result.LoadedFrom)
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".yamlfix.yml"), `
schema: schemas/app.yml
indent_width: 4
backups:
  enabled: false
problems:
  UNKNOWN_PROPERTY:
    severity: warning
`)
	sub := filepath.Join(dir, "nested", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	result, err := configloader.Load(context.Background(), isolated(sub))
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, filepath.Join(dir, "schemas", "app.yml"), cfg.Schema, "relative to the config file")
	assert.Equal(t, 4, cfg.IndentWidth)
	assert.False(t, cfg.Backups.Enabled, "false overrides the default")
	assert.Equal(t, "sidecar", cfg.Backups.Mode, "sibling keys survive the merge")
	assert.Equal(t, config.SeverityWarning, cfg.ProblemSeverity("UNKNOWN_PROPERTY", config.SeverityError))
	assert.Equal(t, []string{filepath.Join(dir, ".yamlfix.yml")}, result.LoadedFrom)
}

func TestLoad_StopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".yamlfix.yml"), "indent_width: 4\n")
	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	result, err := configloader.Load(context.Background(), isolated(repo))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultIndentWidth, result.Config.IndentWidth)
	assert.Empty(t, result.Paths.Project)
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".yamlfix.yml"), `
indent_width: 4
max_fix_passes: 3
ignore: [project/**]
`)
	explicit := filepath.Join(dir, "ci.yml")
	writeConfig(t, explicit, "max_fix_passes: 5\n")

	opts := isolated(dir)
	opts.ExplicitPath = explicit
	opts.LookupEnv = envOf(map[string]string{
		"YAMLFIX_INDENT_WIDTH": "6",
		"YAMLFIX_FORMAT":       "json",
		"YAMLFIX_JOBS":         "3",
	})
	opts.CLIConfig = &config.Config{Format: config.FormatSummary, Ignore: []string{"cli/**"}}

	result, err := configloader.Load(context.Background(), opts)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 6, cfg.IndentWidth, "env beats project")
	assert.Equal(t, 5, cfg.MaxFixPasses, "explicit beats project")
	assert.Equal(t, config.FormatSummary, cfg.Format, "flags beat env")
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, []string{"project/**", "cli/**"}, cfg.Ignore)
	assert.Len(t, result.LoadedFrom, 2)
}

func TestLoad_UserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	writeConfig(t, filepath.Join(home, "yamlfix", "config.yaml"), "max_fix_passes: 7\n")

	opts := isolated(t.TempDir())
	opts.IgnoreUserConfig = false

	result, err := configloader.Load(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Config.MaxFixPasses)
	assert.Equal(t, filepath.Join(home, "yamlfix", "config.yaml"), result.Paths.User)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{name: "bad severity", content: "problems:\n  UNKNOWN_PROPERTY:\n    severity: fatal\n", want: "invalid severity"},
		{name: "bad backup mode", content: "backups:\n  mode: cloud\n", want: "invalid backup mode"},
		{name: "bad glob", content: "ignore: ['a/[b']\n", want: "invalid glob pattern"},
		{name: "bad extension", content: "extensions: [yml]\n", want: "must start with a dot"},
		{name: "type error", content: "indent_width: wide\n", want: "parse yaml"},
		{name: "bad env bool", content: "", env: map[string]string{"YAMLFIX_BACKUPS_ENABLED": "maybe"}, want: "invalid boolean"},
		{name: "bad env format", content: "", env: map[string]string{"YAMLFIX_FORMAT": "xml"}, want: "invalid format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, filepath.Join(dir, ".yamlfix.yml"), tt.content)
			opts := isolated(dir)
			opts.LookupEnv = envOf(tt.env)

			_, err := configloader.Load(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_UnknownCodeWarns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".yamlfix.yml"), "problems:\n  NOT_A_CODE:\n    enabled: false\n")

	result, err := configloader.Load(context.Background(), isolated(dir))
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "NOT_A_CODE")
}

func TestLoad_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := configloader.Load(ctx, isolated(t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestListEnvVars(t *testing.T) {
	t.Parallel()

	vars := configloader.ListEnvVars()
	assert.Contains(t, vars, "YAMLFIX_SCHEMA")
	assert.Contains(t, vars, "YAMLFIX_DRY_RUN")
	for name, desc := range vars {
		assert.NotEmpty(t, desc, name)
	}
}
