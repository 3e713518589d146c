package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/engine"
	"github.com/yaklabco/yamlfix/pkg/fsutil"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func fixOptions() engine.PipelineOptions {
	opts := engine.DefaultPipelineOptions()
	opts.Fix = true
	return opts
}

func newPipeline() *engine.Pipeline {
	return engine.NewPipeline(engine.New(testSchema()))
}

func TestPipeline_ProcessContent_CheckOnly(t *testing.T) {
	t.Parallel()

	result, err := newPipeline().ProcessContent(context.Background(), "app.yml",
		[]byte("level: INFO\n"), config.NewConfig(), engine.DefaultPipelineOptions())
	require.NoError(t, err)

	assert.False(t, result.Modified)
	assert.Nil(t, result.ModifiedContent)
	assert.Zero(t, result.FixPasses)
	assert.Equal(t, 1, result.IssueCount())
	assert.Equal(t, "issues found", result.Summary())
}

func TestPipeline_ProcessContent_MultiPass(t *testing.T) {
	t.Parallel()

	result, err := newPipeline().ProcessContent(context.Background(), "app.yml",
		[]byte("old-port: 80\nserver:\n  host: x\n"), config.NewConfig(), fixOptions())
	require.NoError(t, err)

	assert.True(t, result.Modified)
	assert.Equal(t, "server:\n  host: x\n  port: 80\n", string(result.ModifiedContent))
	assert.Equal(t, 1, result.FixPasses)
	assert.Equal(t, 1, result.TotalEditsApplied)
	assert.False(t, result.HasIssues())
	require.Len(t, result.Fixed, 1)
	assert.Equal(t, reconcile.CodeDeprecatedProperty, result.Fixed[0].Code)
	assert.Equal(t, "changes pending", result.Summary())
}

func TestPipeline_ProcessContent_SeveralFixesInOnePass(t *testing.T) {
	t.Parallel()

	result, err := newPipeline().ProcessContent(context.Background(), "app.yml",
		[]byte("level: INFO\nserver:\n  host: x\n"), config.NewConfig(), fixOptions())
	require.NoError(t, err)

	assert.Equal(t, "level: info\nserver:\n  host: x\n  port:\n", string(result.ModifiedContent))
	assert.Equal(t, 1, result.FixPasses)
	assert.Equal(t, 2, result.TotalEditsApplied)
	assert.False(t, result.HasIssues())
}

func TestPipeline_ProcessContent_PassLimit(t *testing.T) {
	t.Parallel()

	opts := fixOptions()
	opts.MaxFixPasses = 1

	result, err := newPipeline().ProcessContent(context.Background(), "app.yml",
		[]byte("old-port: 80\nserver:\n  host: x\n"), config.NewConfig(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FixPasses)
	assert.False(t, result.HasIssues(), "final diagnostics describe the fixed content")
}

func TestPipeline_ProcessContent_DryRunDiff(t *testing.T) {
	t.Parallel()

	opts := fixOptions()
	opts.DryRun = true

	result, err := newPipeline().ProcessContent(context.Background(), "app.yml",
		[]byte("level: INFO\n"), config.NewConfig(), opts)
	require.NoError(t, err)

	require.NotNil(t, result.Diff)
	assert.True(t, result.Diff.HasChanges())
	assert.Contains(t, result.Diff.String(), "-level: INFO")
	assert.Contains(t, result.Diff.String(), "+level: info")
}

func TestPipeline_ProcessFile_WritesWithBackup(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "level: INFO\n")

	result, err := newPipeline().ProcessFile(context.Background(), path, config.NewConfig(), fixOptions())
	require.NoError(t, err)

	assert.True(t, result.Written)
	assert.True(t, result.BackupCreated())
	assert.Equal(t, path+fsutil.BackupSuffix, result.BackupPath)
	assert.Equal(t, "fixed (backup created)", result.Summary())
	require.NotNil(t, result.Snapshot)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "level: info\n", string(got))

	backup, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, "level: INFO\n", string(backup))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPipeline_ProcessFile_NoBackup(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "level: INFO\n")
	cfg := config.NewConfig()
	cfg.Fix = true
	cfg.NoBackups = true

	result, err := newPipeline().ProcessFile(context.Background(), path, cfg, engine.PipelineOptionsFromConfig(cfg))
	require.NoError(t, err)

	assert.True(t, result.Written)
	assert.False(t, result.BackupCreated())
	assert.Equal(t, "fixed", result.Summary())
	assert.NoFileExists(t, path+fsutil.BackupSuffix)
}

func TestPipeline_ProcessFile_DryRunLeavesFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "level: INFO\n")
	opts := fixOptions()
	opts.DryRun = true

	result, err := newPipeline().ProcessFile(context.Background(), path, config.NewConfig(), opts)
	require.NoError(t, err)

	assert.False(t, result.Written)
	require.NotNil(t, result.Diff)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "level: INFO\n", string(got))
}

func TestPipeline_ProcessFile_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newPipeline().ProcessFile(context.Background(),
		filepath.Join(t.TempDir(), "missing.yml"), config.NewConfig(), fixOptions())
	require.ErrorIs(t, err, engine.ErrFileNotFound)
	assert.True(t, engine.IsPipelineError(err))
}

func TestPipeline_ProcessContent_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline().ProcessContent(ctx, "app.yml", []byte("a: 1\n"), config.NewConfig(), fixOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipelineResult_Summary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result engine.PipelineResult
		want   string
	}{
		{name: "skipped", result: engine.PipelineResult{Skipped: true, SkipReason: "busy"}, want: "skipped: busy"},
		{name: "written", result: engine.PipelineResult{Written: true}, want: "fixed"},
		{name: "pending", result: engine.PipelineResult{Modified: true}, want: "changes pending"},
		{name: "ok", result: engine.PipelineResult{FileResult: &engine.FileResult{}}, want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.result.Summary())
		})
	}
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, engine.DefaultPipelineOptions(), engine.PipelineOptionsFromConfig(nil))

	cfg := config.NewConfig()
	cfg.Fix = true
	cfg.DryRun = true
	cfg.MaxFixPasses = 3
	cfg.Backups.Mode = "none"

	opts := engine.PipelineOptionsFromConfig(cfg)
	assert.True(t, opts.Fix)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 3, opts.MaxFixPasses)
	assert.Equal(t, fsutil.BackupModeNone, opts.Backup.Mode)
	assert.False(t, opts.Backup.Active())
}
