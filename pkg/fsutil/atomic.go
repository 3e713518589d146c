package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultFileMode applies when a write has no mode to preserve.
const DefaultFileMode os.FileMode = 0o644

// WriteAtomic replaces path with content through a temporary sibling file
// and a rename, so readers observe either the old or the new content. The
// temporary file is removed on failure.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if mode == 0 {
		mode = DefaultFileMode
	}

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	// OpenFile honours the umask; set the mode explicitly.
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	committed = true
	return nil
}

// Commit writes content over the snapshot's file, keeping its mode. It
// returns ErrConcurrentChange when the file changed since it was read.
func (s *Snapshot) Commit(ctx context.Context, content []byte, strict bool) error {
	changed, err := s.Changed(ctx, strict)
	if err != nil {
		return err
	}
	if changed {
		return fmt.Errorf("%w: %s", ErrConcurrentChange, s.Path)
	}
	return WriteAtomic(ctx, s.Path, content, s.Mode)
}
