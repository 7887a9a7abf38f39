package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemMirror copies snapshots into a directory, typically on a mounted
// network share or external drive.
type FilesystemMirror struct {
	root string
}

// NewFilesystemMirror creates a mirror rooted at the given directory,
// creating it if needed.
func NewFilesystemMirror(root string) (*FilesystemMirror, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating mirror root: %w", err)
	}
	return &FilesystemMirror{root: root}, nil
}

func (m *FilesystemMirror) Name() string { return "filesystem" }

// Push writes through a temp file and renames into place so a torn copy
// never replaces a good snapshot.
func (m *FilesystemMirror) Push(ctx context.Context, localPath, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(m.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copying snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(m.root, name)); err != nil {
		return fmt.Errorf("placing snapshot: %w", err)
	}
	return nil
}

func (m *FilesystemMirror) Fetch(ctx context.Context, name, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(filepath.Join(m.root, name))
	if err != nil {
		return fmt.Errorf("opening mirrored snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}

var _ Mirror = (*FilesystemMirror)(nil)
