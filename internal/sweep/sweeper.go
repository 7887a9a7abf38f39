// Package sweep removes directories left empty after an organizing run.
package sweep

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"tidy-go/internal/organizer"
)

// Sweeper walks target roots bottom-up and removes directories with no
// remaining entries. The roots themselves are never removed.
type Sweeper struct {
	excluded map[string]struct{}
	fsmgr    organizer.FilesystemManager
	logger   organizer.Logger
}

// New creates a Sweeper. Directories whose name is in excluded are neither
// descended into nor removed.
func New(excluded map[string]struct{}, fsmgr organizer.FilesystemManager, logger organizer.Logger) *Sweeper {
	return &Sweeper{excluded: excluded, fsmgr: fsmgr, logger: logger}
}

var _ organizer.Sweeper = (*Sweeper)(nil)

// Sweep returns the directories removed (or, on a dry run, the directories
// that would be removed), children before parents. A directory counts as
// empty when every entry below it is itself an empty directory scheduled for
// removal in the same pass.
func (s *Sweeper) Sweep(roots []string, dryRun bool) ([]string, error) {
	var removed []string
	seen := make(map[string]struct{})

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving root %s: %w", root, err)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root is not a directory: %s", abs)
		}

		if _, err := s.sweepDir(abs, true, dryRun, &removed); err != nil {
			return nil, err
		}
	}
	sortChildrenFirstStable(removed)
	return removed, nil
}

// sweepDir processes one directory and reports whether it is (or would be)
// empty after the pass.
func (s *Sweeper) sweepDir(dir string, isRoot, dryRun bool, removed *[]string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	empty := true
	for _, entry := range entries {
		name := entry.Name()
		if _, skip := s.excluded[name]; skip {
			empty = false
			continue
		}
		if !entry.IsDir() {
			empty = false
			continue
		}
		childEmpty, err := s.sweepDir(filepath.Join(dir, name), false, dryRun, removed)
		if err != nil {
			return false, err
		}
		if !childEmpty {
			empty = false
		}
	}

	if !empty || isRoot {
		return false, nil
	}

	if !dryRun {
		if err := s.fsmgr.RemoveDir(dir); err != nil {
			// Another process may have dropped a file in since ReadDir.
			s.logger.Warn("could not remove directory", "dir", dir, "error", err)
			return false, nil
		}
	}
	*removed = append(*removed, dir)
	return true, nil
}

// sortChildrenFirstStable keeps the children-before-parents invariant while
// making output deterministic across roots: deeper paths first, then
// lexical.
func sortChildrenFirstStable(dirs []string) {
	sort.SliceStable(dirs, func(i, j int) bool {
		a, b := dirs[i], dirs[j]
		da, db := pathDepth(a), pathDepth(b)
		if da != db {
			return da > db
		}
		return a < b
	})
}

func pathDepth(p string) int {
	n := 0
	for _, r := range p {
		if r == filepath.Separator {
			n++
		}
	}
	return n
}
