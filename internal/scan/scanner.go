// Package scan discovers regular files under target roots.
package scan

import (
	"os"
	"path/filepath"
	"sort"

	"tidy-go/internal/organizer"
)

// Scanner walks directories recursively and collects FileRecords. Entries
// whose name is in the excluded set are skipped before descent, so large
// excluded trees (dependency caches and the like) cost nothing. Symlinked
// directories are followed at most once: a visited set of resolved paths
// guards against cycles. Content hashes are not computed here; the duplicate
// finder hashes on demand.
type Scanner struct {
	excluded    map[string]struct{}
	minFileSize int64
	logger      organizer.Logger
}

// New creates a Scanner.
func New(excluded map[string]struct{}, minFileSize int64, logger organizer.Logger) *Scanner {
	if logger == nil {
		logger = organizer.NewNopLogger()
	}
	return &Scanner{excluded: excluded, minFileSize: minFileSize, logger: logger}
}

// Scan walks each root and returns the discovered records sorted by path.
// Per-entry stat/read errors produce a warning and are skipped; a scan never
// aborts for one bad entry.
func (s *Scanner) Scan(roots []string) ([]organizer.FileRecord, error) {
	visited := make(map[string]struct{})
	var records []organizer.FileRecord

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			s.logger.Warn("skipping unresolvable root", "root", root, "error", err)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			s.logger.Warn("skipping root", "root", abs, "error", err)
			continue
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			s.logger.Warn("skipping root", "root", abs, "error", err)
			continue
		}
		if _, seen := visited[resolved]; seen {
			continue
		}
		visited[resolved] = struct{}{}
		s.walk(abs, visited, &records)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

func (s *Scanner) walk(dir string, visited map[string]struct{}, out *[]organizer.FileRecord) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("unreadable directory", "path", dir, "error", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if _, skip := s.excluded[name]; skip {
			continue
		}
		full := filepath.Join(dir, name)

		switch {
		case entry.IsDir():
			resolved, err := filepath.EvalSymlinks(full)
			if err != nil {
				s.logger.Warn("unresolvable directory", "path", full, "error", err)
				continue
			}
			if _, seen := visited[resolved]; seen {
				continue
			}
			visited[resolved] = struct{}{}
			s.walk(full, visited, out)

		case entry.Type()&os.ModeSymlink != 0:
			resolved, err := filepath.EvalSymlinks(full)
			if err != nil {
				s.logger.Warn("broken symlink", "path", full, "error", err)
				continue
			}
			info, err := os.Stat(resolved)
			if err != nil {
				s.logger.Warn("unreadable symlink target", "path", full, "error", err)
				continue
			}
			if !info.IsDir() {
				// Symlinks to files are skipped: the target will be picked up
				// if it lives under a scanned root.
				continue
			}
			if _, seen := visited[resolved]; seen {
				continue
			}
			visited[resolved] = struct{}{}
			s.walk(full, visited, out)

		case entry.Type().IsRegular():
			info, err := entry.Info()
			if err != nil {
				s.logger.Warn("unreadable entry", "path", full, "error", err)
				continue
			}
			if info.Size() < s.minFileSize {
				continue
			}
			*out = append(*out, organizer.FileRecord{
				Path:    full,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}
}
