package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrConcurrentChange reports that a file changed between read and write.
var ErrConcurrentChange = errors.New("file modified during processing")

// BackupMode selects where backups are stored.
type BackupMode string

const (
	// BackupModeSidecar writes "<file>.yamlfix.bak" next to the file.
	BackupModeSidecar BackupMode = "sidecar"

	// BackupModeNone disables backups.
	BackupModeNone BackupMode = "none"
)

// BackupSuffix is appended to sidecar backups.
const BackupSuffix = ".yamlfix.bak"

// BackupConfig controls backup creation.
type BackupConfig struct {
	Enabled bool
	Mode    BackupMode
}

// DefaultBackupConfig enables sidecar backups.
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{Enabled: true, Mode: BackupModeSidecar}
}

// Active reports whether the config produces backups.
func (c BackupConfig) Active() bool {
	return c.Enabled && c.Mode != BackupModeNone
}

// BackupPath returns the backup location for path, or "" when mode stores
// no backups. Unknown modes fall back to sidecar.
func BackupPath(path string, mode BackupMode) string {
	if mode == BackupModeNone {
		return ""
	}
	return path + BackupSuffix
}

// Backup saves the snapshot content under its backup path. An existing
// backup is left untouched so that repeated runs keep the oldest content.
// It returns the path written, or "" when nothing was written.
func (s *Snapshot) Backup(ctx context.Context, cfg BackupConfig) (string, error) {
	if s == nil {
		return "", ErrNilSnapshot
	}
	if !cfg.Active() {
		return "", nil
	}

	target := BackupPath(s.Path, cfg.Mode)
	_, err := os.Stat(target)
	switch {
	case err == nil:
		return "", nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("stat backup: %w", err)
	}

	if err := WriteAtomic(ctx, target, s.Content, s.Mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return target, nil
}

// Restore copies the backup of path back over it. It reports false when no
// backup exists.
func Restore(ctx context.Context, path string, mode BackupMode) (bool, error) {
	target := BackupPath(path, mode)
	if target == "" {
		return false, nil
	}

	backup, err := Read(ctx, target)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read backup: %w", err)
	}

	if err := WriteAtomic(ctx, path, backup.Content, backup.Mode); err != nil {
		return false, fmt.Errorf("restore %s: %w", path, err)
	}
	return true, nil
}
