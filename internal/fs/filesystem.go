// Package fs provides the real filesystem implementation of
// FilesystemManager.
package fs

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"

	"tidy-go/internal/organizer"
)

// OSFilesystemManager performs actual filesystem operations using the os
// package.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a filesystem manager that operates on the
// real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path string) (iofs.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether anything is present at path.
func (m *OSFilesystemManager) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Move relocates a file, creating parent directories as needed. It never
// overwrites: an occupied destination is an error. Rename is tried first;
// when source and destination are on different volumes it falls back to a
// copy with a size check, then removes the source.
func (m *OSFilesystemManager) Move(source, destination string) error {
	if m.Exists(destination) {
		return fmt.Errorf("destination already exists: %s", destination)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	err := os.Rename(source, destination)
	if err == nil {
		return nil
	}
	if !crossDevice(err) {
		return fmt.Errorf("renaming file: %w", err)
	}

	if err := m.copyFile(source, destination); err != nil {
		return err
	}
	if err := os.Remove(source); err != nil {
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// copyFile copies source to destination through a temp file in the target
// directory, verifies the byte count, and renames into place so a partial
// copy never occupies the destination path.
func (m *OSFilesystemManager) copyFile(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".tidy-move-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("copying file contents: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if written != info.Size() {
		return fmt.Errorf("copy size mismatch: wrote %d bytes, source is %d", written, info.Size())
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpPath, destination); err != nil {
		return fmt.Errorf("placing copied file: %w", err)
	}
	return nil
}

// RemoveDir removes a directory. It fails when the directory still has
// entries.
func (m *OSFilesystemManager) RemoveDir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory not empty: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing directory: %w", err)
	}
	return nil
}

// crossDevice reports whether a rename failed because source and destination
// are on different filesystems.
func crossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}

// Compile-time check that OSFilesystemManager implements the
// FilesystemManager interface
var _ organizer.FilesystemManager = (*OSFilesystemManager)(nil)
