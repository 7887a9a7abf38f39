package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"tidy-go/internal/organizer"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func paths(records []organizer.FileRecord) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Path)
	}
	return out
}

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("walks nested directories and sorts by path", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "b.txt"), []byte("bb"))
		writeFile(t, filepath.Join(root, "sub", "a.txt"), []byte("aa"))
		writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"), []byte("cc"))

		s := New(nil, 0, nil)
		records, err := s.Scan([]string{root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		got := paths(records)
		if len(got) != 3 {
			t.Fatalf("found %d files, want 3: %v", len(got), got)
		}
		if !sort.StringsAreSorted(got) {
			t.Errorf("records not sorted by path: %v", got)
		}
		if records[0].Size != 2 {
			t.Errorf("size = %d, want 2", records[0].Size)
		}
	})

	t.Run("excluded names prune whole subtrees", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "keep.txt"), []byte("x"))
		writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), []byte("x"))
		writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("x"))

		excluded := map[string]struct{}{"node_modules": {}, ".git": {}}
		s := New(excluded, 0, nil)
		records, err := s.Scan([]string{root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 || filepath.Base(records[0].Path) != "keep.txt" {
			t.Errorf("records = %v, want only keep.txt", paths(records))
		}
	})

	t.Run("files below the size floor are skipped", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "small.txt"), []byte("ab"))
		writeFile(t, filepath.Join(root, "big.txt"), []byte("abcdefgh"))

		s := New(nil, 5, nil)
		records, err := s.Scan([]string{root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 || filepath.Base(records[0].Path) != "big.txt" {
			t.Errorf("records = %v, want only big.txt", paths(records))
		}
	})

	t.Run("overlapping roots scan once", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), []byte("x"))

		s := New(nil, 0, nil)
		records, err := s.Scan([]string{root, root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 {
			t.Errorf("found %d files, want 1: %v", len(records), paths(records))
		}
	})

	t.Run("missing root is skipped without error", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), []byte("x"))

		s := New(nil, 0, nil)
		records, err := s.Scan([]string{filepath.Join(root, "nope"), root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 {
			t.Errorf("found %d files, want 1", len(records))
		}
	})

	t.Run("symlink cycles do not loop", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("symlink creation needs privileges on windows")
		}
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "sub", "a.txt"), []byte("x"))
		if err := os.Symlink(root, filepath.Join(root, "sub", "loop")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		s := New(nil, 0, nil)
		records, err := s.Scan([]string{root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 {
			t.Errorf("found %d files, want 1: %v", len(records), paths(records))
		}
	})

	t.Run("symlinks to files are not double counted", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("symlink creation needs privileges on windows")
		}
		root := t.TempDir()
		target := filepath.Join(root, "a.txt")
		writeFile(t, target, []byte("x"))
		if err := os.Symlink(target, filepath.Join(root, "alias.txt")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		s := New(nil, 0, nil)
		records, err := s.Scan([]string{root})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 || filepath.Base(records[0].Path) != "a.txt" {
			t.Errorf("records = %v, want only the target file", paths(records))
		}
	})
}
