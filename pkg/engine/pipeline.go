package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaklabco/yamlfix/internal/logging"
	"github.com/yaklabco/yamlfix/pkg/config"
	"github.com/yaklabco/yamlfix/pkg/fix"
	"github.com/yaklabco/yamlfix/pkg/fsutil"
	"github.com/yaklabco/yamlfix/pkg/reconcile"
)

// Pipeline error categories.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCheckFailure     = errors.New("check failure")
	ErrWriteFailure     = errors.New("write failure")
)

// PipelineResult is the outcome of running one file through the pipeline.
type PipelineResult struct {
	// FileResult is the check of the final content. After fixing it lists
	// the problems that remain.
	*FileResult

	// Snapshot is the file as read from disk. Nil for in-memory content.
	Snapshot *fsutil.Snapshot

	// Fixed lists the diagnostics resolved by applied edits, in the order
	// they were first reported.
	Fixed []reconcile.Diagnostic

	Modified        bool
	ModifiedContent []byte

	// Diff is set in dry-run mode when the content changed.
	Diff *fix.Diff

	Skipped    bool
	SkipReason string

	// BackupPath is the backup written before the file was replaced.
	BackupPath string

	Written bool

	FixPasses         int
	TotalEditsApplied int
}

// BackupCreated reports whether a backup was written.
func (pr *PipelineResult) BackupCreated() bool {
	return pr.BackupPath != ""
}

// Summary describes the result in a few words.
func (pr *PipelineResult) Summary() string {
	switch {
	case pr.Skipped:
		return "skipped: " + pr.SkipReason
	case pr.Written && pr.BackupCreated():
		return "fixed (backup created)"
	case pr.Written:
		return "fixed"
	case pr.Modified:
		return "changes pending"
	case pr.FileResult != nil && pr.HasIssues():
		return "issues found"
	default:
		return "ok"
	}
}

// PipelineOptions controls fixing and writing.
type PipelineOptions struct {
	// Fix applies auto-fixable edits.
	Fix bool

	// DryRun computes a diff instead of writing.
	DryRun bool

	// Backup configures the backup written before replacing a file.
	Backup fsutil.BackupConfig

	// StrictRaceDetection compares content hashes, not only size and mtime,
	// before writing.
	StrictRaceDetection bool

	// MaxFixPasses bounds the fix loop. Zero means the default.
	MaxFixPasses int
}

// DefaultPipelineOptions checks without fixing.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Backup:              fsutil.DefaultBackupConfig(),
		StrictRaceDetection: true,
		MaxFixPasses:        config.DefaultMaxFixPasses,
	}
}

// PipelineOptionsFromConfig derives options from the CLI-level fields of
// cfg.
func PipelineOptionsFromConfig(cfg *config.Config) PipelineOptions {
	if cfg == nil {
		return DefaultPipelineOptions()
	}
	return PipelineOptions{
		Fix:                 cfg.Fix,
		DryRun:              cfg.DryRun,
		Backup:              BackupConfigFromConfig(cfg),
		StrictRaceDetection: true,
		MaxFixPasses:        cfg.EffectiveMaxFixPasses(),
	}
}

// BackupConfigFromConfig maps the backups section of cfg.
func BackupConfigFromConfig(cfg *config.Config) fsutil.BackupConfig {
	if cfg == nil {
		return fsutil.DefaultBackupConfig()
	}
	return fsutil.BackupConfig{
		Enabled: cfg.Backups.Enabled && !cfg.NoBackups,
		Mode:    fsutil.BackupMode(cfg.Backups.Mode),
	}
}

// Pipeline runs files through check, fix and write.
type Pipeline struct {
	Engine *Engine
}

// NewPipeline creates a Pipeline around engine.
func NewPipeline(engine *Engine) *Pipeline {
	return &Pipeline{Engine: engine}
}

// ProcessFile checks path and, in fix mode, rewrites it:
//  1. Read and hash the file.
//  2. Check, apply accepted edits in memory, and repeat until no edits
//     remain or the pass limit is reached.
//  3. In dry-run mode, return a diff.
//  4. Otherwise back up the file and replace it atomically, unless it was
//     modified since step 1.
func (p *Pipeline) ProcessFile(
	ctx context.Context,
	path string,
	cfg *config.Config,
	opts PipelineOptions,
) (*PipelineResult, error) {
	snap, err := fsutil.Read(ctx, path)
	if err != nil {
		return nil, categorize(err)
	}

	result, err := p.ProcessContent(ctx, path, snap.Content, cfg, opts)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap

	if !result.Modified || opts.DryRun {
		return result, nil
	}

	logger := logging.FromContext(ctx)

	changed, err := snap.Changed(ctx, opts.StrictRaceDetection)
	if err != nil {
		return nil, fmt.Errorf("check modified: %w", err)
	}
	if changed {
		result.Skipped = true
		result.SkipReason = fsutil.ErrConcurrentChange.Error()
		logger.Warn("file changed while fixing, not written", logging.FieldPath, path)
		return result, nil
	}

	backup, err := snap.Backup(ctx, opts.Backup)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	result.BackupPath = backup

	if err := snap.Commit(ctx, result.ModifiedContent, opts.StrictRaceDetection); err != nil {
		if errors.Is(err, fsutil.ErrConcurrentChange) {
			result.Skipped = true
			result.SkipReason = err.Error()
			return result, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	result.Written = true

	logger.Debug("wrote fixes",
		logging.FieldPath, path,
		logging.FieldPasses, result.FixPasses,
		logging.FieldEdits, result.TotalEditsApplied,
		logging.FieldBackup, backup,
	)
	return result, nil
}

// ProcessContent runs the check and fix loop over in-memory content.
func (p *Pipeline) ProcessContent(
	ctx context.Context,
	path string,
	original []byte,
	cfg *config.Config,
	opts PipelineOptions,
) (*PipelineResult, error) {
	maxPasses := opts.MaxFixPasses
	if maxPasses <= 0 {
		maxPasses = config.DefaultMaxFixPasses
	}

	result := &PipelineResult{}
	content := original

	for range maxPasses {
		fileResult, err := p.Engine.CheckContent(ctx, path, content, cfg)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("processing cancelled: %w", ctxErr)
			}
			return nil, fmt.Errorf("%w: %w", ErrCheckFailure, err)
		}
		result.FileResult = fileResult

		if !opts.Fix || !fileResult.HasFixes() {
			break
		}

		result.Fixed = append(result.Fixed, fileResult.Resolved...)
		content = fix.ApplyEdits(content, fileResult.Edits)
		result.FixPasses++
		result.TotalEditsApplied += len(fileResult.Edits)
		result.Modified = true
	}

	// The loop may end on the pass limit with edits still pending; check
	// the final content so the reported diagnostics match it.
	if result.Modified && result.FileResult.HasFixes() {
		fileResult, err := p.Engine.CheckContent(ctx, path, content, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCheckFailure, err)
		}
		result.FileResult = fileResult
	}

	if !result.Modified {
		return result, nil
	}
	result.ModifiedContent = content

	if opts.DryRun {
		result.Diff = fix.GenerateDiff(path, original, content)
	}
	return result, nil
}

func categorize(err error) error {
	switch {
	case errors.Is(err, fsutil.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, fsutil.ErrPermissionDenied):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return err
	}
}

// IsPipelineError reports whether err belongs to a pipeline category.
func IsPipelineError(err error) bool {
	return errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrCheckFailure) ||
		errors.Is(err, ErrWriteFailure)
}
