package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/engine"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
	"github.com/yaklabco/yamlfix/pkg/runner"
	"github.com/yaklabco/yamlfix/pkg/schema"
)

func testRunner() *runner.Runner {
	sch := &schema.Schema{
		Name: "app",
		Top: schema.NewBean("Root",
			&schema.Property{Name: "port", Type: schema.Int},
			&schema.Property{Name: "level", Type: schema.Enum("Level", "debug", "info")},
			&schema.Property{Name: "old", Type: schema.Int, Deprecated: true},
		),
	}
	return runner.New(engine.NewPipeline(engine.New(sch)))
}

func TestRunner_Run_Check(t *testing.T) {
	t.Parallel()

	dir := makeTree(t, map[string]string{
		"a.yml":     "port: 80\n",
		"b.yml":     "port: x\nold: 1\n",
		"c/d.yaml":  "bogus: 1\n",
		"notes.txt": "not yaml",
	})

	result, err := testRunner().Run(context.Background(), runner.Options{
		WorkingDir: dir,
		Jobs:       2,
		Config:     config.NewConfig(),
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	assert.Equal(t, []string{"a.yml", "b.yml", "c/d.yaml"}, relAll(t, dir, []string{
		result.Files[0].Path, result.Files[1].Path, result.Files[2].Path,
	}))

	stats := result.Stats
	assert.Equal(t, 3, stats.FilesDiscovered)
	assert.Equal(t, 3, stats.FilesProcessed)
	assert.Equal(t, 2, stats.FilesWithIssues)
	assert.Equal(t, 3, stats.DiagnosticsTotal)
	assert.Equal(t, 2, stats.DiagnosticsBySeverity[config.SeverityError])
	assert.Equal(t, 1, stats.DiagnosticsBySeverity[config.SeverityWarning])
	assert.Equal(t, 1, stats.DiagnosticsByCode[reconcile.CodeUnknownProperty])
	assert.Zero(t, stats.FilesModified)

	assert.True(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
	assert.True(t, result.HasIssues())
	assert.False(t, result.HasFileErrors())
}

func TestRunner_Run_Fix(t *testing.T) {
	t.Parallel()

	dir := makeTree(t, map[string]string{
		"a.yml": "level: INFO\n",
		"b.yml": "level: debug\n",
	})

	cfg := config.NewConfig()
	cfg.Fix = true
	cfg.NoBackups = true

	result, err := testRunner().Run(context.Background(), runner.Options{WorkingDir: dir, Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.FilesModified)
	assert.Equal(t, 1, result.Stats.DiagnosticsFixed)
	assert.Equal(t, 1, result.Stats.EditsApplied)
	assert.False(t, result.HasIssues())

	got, err := os.ReadFile(filepath.Join(dir, "a.yml"))
	require.NoError(t, err)
	assert.Equal(t, "level: info\n", string(got))
}

func TestRunner_RunFiles_RecordsFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	result, err := testRunner().RunFiles(context.Background(),
		[]string{filepath.Join(dir, "gone.yml")}, runner.Options{Config: config.NewConfig()})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	require.ErrorIs(t, result.Files[0].Error, engine.ErrFileNotFound)
	assert.True(t, result.HasFileErrors())
	assert.Equal(t, 1, result.Stats.FilesErrored)
}

func TestRunner_Run_Empty(t *testing.T) {
	t.Parallel()

	result, err := testRunner().Run(context.Background(), runner.Options{WorkingDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.False(t, result.HasIssues())
}

func TestRunner_RunFiles_Cancelled(t *testing.T) {
	t.Parallel()

	dir := makeTree(t, map[string]string{"a.yml": "port: 1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testRunner().RunFiles(ctx, []string{filepath.Join(dir, "a.yml")}, runner.Options{})
	require.ErrorIs(t, err, context.Canceled)
}
