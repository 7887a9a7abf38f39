// Package planner turns analysis results into an ordered move plan. The
// planner never touches the filesystem beyond optional destination probes
// and never assigns run identifiers, so building the same plan twice from
// the same inputs yields identical output.
package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"tidy-go/internal/organizer"
)

const (
	duplicatesDir = "Duplicates"
	versionsDir   = "Versions"
	organizedDir  = "Organized"
)

// DateGranularity controls how deep the date layout under a category goes.
type DateGranularity string

const (
	GranularityNone  DateGranularity = "none"
	GranularityYear  DateGranularity = "year"
	GranularityMonth DateGranularity = "month"
)

// Planner builds plans rooted at a fixed archive directory.
type Planner struct {
	archiveRoot string
	granularity DateGranularity
	exists      func(path string) bool
}

// New creates a Planner. exists may be nil; when set it is probed for
// destination collisions against paths already on disk.
func New(archiveRoot string, granularity DateGranularity, exists func(string) bool) *Planner {
	return &Planner{archiveRoot: archiveRoot, granularity: granularity, exists: exists}
}

var _ organizer.Planner = (*Planner)(nil)

// BuildPlan lays out one move per record. Surplus duplicates land under
// Duplicates, superseded versions under Versions, everything else under
// Organized by category and modification date. Records already at their
// destination are excluded. Within the plan destinations are unique;
// collisions renumber the stem.
func (p *Planner) BuildPlan(
	records []organizer.FileRecord,
	dups []organizer.DuplicateGroup,
	versions []organizer.VersionGroup,
	categories map[string]organizer.Category,
) organizer.Plan {
	surplus := make(map[string]struct{})
	for _, g := range dups {
		for _, r := range g.Surplus {
			surplus[r.Path] = struct{}{}
		}
	}
	older := make(map[string]struct{})
	for _, g := range versions {
		for _, c := range g.Older() {
			if _, dup := surplus[c.Record.Path]; dup {
				continue
			}
			older[c.Record.Path] = struct{}{}
		}
	}

	claimed := make(map[string]struct{})
	var plan organizer.Plan

	add := func(r organizer.FileRecord, dest string, reason organizer.Reason) {
		dest = p.claim(r.Path, dest, claimed)
		if dest == r.Path {
			return
		}
		plan = append(plan, organizer.Operation{
			Kind:        organizer.KindMove,
			Seq:         len(plan),
			Source:      r.Path,
			Destination: dest,
			Reason:      reason,
			Status:      organizer.StatusPlanned,
		})
	}

	for _, r := range records {
		name := filepath.Base(r.Path)
		switch {
		case member(surplus, r.Path):
			add(r, filepath.Join(p.archiveRoot, duplicatesDir, name), organizer.ReasonDuplicate)
		case member(older, r.Path):
			add(r, filepath.Join(p.archiveRoot, versionsDir, name), organizer.ReasonOldVersion)
		default:
			cat, ok := categories[r.Path]
			if !ok {
				continue
			}
			add(r, filepath.Join(p.archiveRoot, organizedDir, p.datedDir(r, cat), name), organizer.ReasonCategory)
		}
	}
	return plan
}

func member(set map[string]struct{}, path string) bool {
	_, ok := set[path]
	return ok
}

func (p *Planner) datedDir(r organizer.FileRecord, cat organizer.Category) string {
	dir := string(cat)
	switch p.granularity {
	case GranularityYear:
		dir = filepath.Join(dir, fmt.Sprintf("%04d", r.ModTime.Year()))
	case GranularityMonth:
		dir = filepath.Join(dir, fmt.Sprintf("%04d", r.ModTime.Year()), fmt.Sprintf("%02d", int(r.ModTime.Month())))
	}
	return dir
}

// claim reserves a destination for source, renumbering the stem until the
// path is free both within the plan and, when a probe is configured, on disk.
// A record already at its destination claims it without renumbering, so other
// sources cannot target it.
func (p *Planner) claim(source, dest string, claimed map[string]struct{}) string {
	candidate := dest
	for n := 1; p.taken(candidate, source, claimed); n++ {
		ext := filepath.Ext(dest)
		stem := strings.TrimSuffix(filepath.Base(dest), ext)
		candidate = filepath.Join(filepath.Dir(dest), fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	claimed[candidate] = struct{}{}
	return candidate
}

func (p *Planner) taken(path, source string, claimed map[string]struct{}) bool {
	if _, ok := claimed[path]; ok {
		return true
	}
	if path == source {
		// The record's own file is not a collision; it means the record is
		// already in place.
		return false
	}
	return p.exists != nil && p.exists(path)
}
