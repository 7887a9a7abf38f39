package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	t.Run("moves into new directory tree", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "src", "file.txt")
		dst := filepath.Join(dir, "archive", "Organized", "Documents", "file.txt")
		writeFile(t, src, "hello")

		m := NewOSFilesystemManager()
		if err := m.Move(src, dst); err != nil {
			t.Fatalf("Move() error = %v", err)
		}
		if m.Exists(src) {
			t.Error("source should be gone")
		}
		got, err := os.ReadFile(dst)
		if err != nil {
			t.Fatalf("reading destination: %v", err)
		}
		if string(got) != "hello" {
			t.Errorf("content = %q, want hello", got)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "a.txt")
		dst := filepath.Join(dir, "b.txt")
		writeFile(t, src, "new")
		writeFile(t, dst, "existing")

		m := NewOSFilesystemManager()
		if err := m.Move(src, dst); err == nil {
			t.Fatal("Move() onto an occupied path should fail")
		}
		got, _ := os.ReadFile(dst)
		if string(got) != "existing" {
			t.Errorf("destination content = %q, want existing untouched", got)
		}
		if !m.Exists(src) {
			t.Error("source must survive a refused move")
		}
	})

	t.Run("missing source fails", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		m := NewOSFilesystemManager()
		if err := m.Move(filepath.Join(dir, "ghost.txt"), filepath.Join(dir, "out.txt")); err == nil {
			t.Fatal("Move() of a missing source should fail")
		}
	})
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	// Exercises the cross-volume fallback path directly.
	t.Run("copies content and mode", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		src := filepath.Join(dir, "script.sh")
		dst := filepath.Join(dir, "out", "script.sh")
		writeFile(t, src, "#!/bin/sh\n")
		if err := os.Chmod(src, 0o755); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}

		m := NewOSFilesystemManager()
		if err := m.copyFile(src, dst); err != nil {
			t.Fatalf("copyFile() error = %v", err)
		}
		info, err := os.Stat(dst)
		if err != nil {
			t.Fatalf("stat destination: %v", err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Errorf("mode = %o, want 755", info.Mode().Perm())
		}
	})
}

func TestRemoveDir(t *testing.T) {
	t.Parallel()

	t.Run("removes empty directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "empty")
		if err := os.Mkdir(target, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		m := NewOSFilesystemManager()
		if err := m.RemoveDir(target); err != nil {
			t.Fatalf("RemoveDir() error = %v", err)
		}
		if m.Exists(target) {
			t.Error("directory should be gone")
		}
	})

	t.Run("refuses non-empty directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "full")
		writeFile(t, filepath.Join(target, "file.txt"), "x")

		m := NewOSFilesystemManager()
		if err := m.RemoveDir(target); err == nil {
			t.Fatal("RemoveDir() on a non-empty directory should fail")
		}
		if !m.Exists(filepath.Join(target, "file.txt")) {
			t.Error("contents must survive a refused removal")
		}
	})
}

func TestExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	m := NewOSFilesystemManager()
	if m.Exists(filepath.Join(dir, "nope")) {
		t.Error("Exists() = true for missing path")
	}
	writeFile(t, filepath.Join(dir, "yes.txt"), "x")
	if !m.Exists(filepath.Join(dir, "yes.txt")) {
		t.Error("Exists() = false for present path")
	}
}
