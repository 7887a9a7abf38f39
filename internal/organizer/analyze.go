package organizer

import "fmt"

// Analysis holds everything learned about a file set before planning.
// Groups are derived once per run from the record set and discarded after
// planning.
type Analysis struct {
	Records    []FileRecord
	Duplicates []DuplicateGroup
	Versions   []VersionGroup
}

// SurplusPaths returns the set of paths that are surplus members of a
// duplicate group.
func (a *Analysis) SurplusPaths() map[string]struct{} {
	set := make(map[string]struct{})
	for _, g := range a.Duplicates {
		for _, r := range g.Surplus {
			set[r.Path] = struct{}{}
		}
	}
	return set
}

// OlderVersionPaths returns the set of paths that are non-canonical members
// of a version group.
func (a *Analysis) OlderVersionPaths() map[string]struct{} {
	set := make(map[string]struct{})
	for _, g := range a.Versions {
		for _, c := range g.Older() {
			set[c.Record.Path] = struct{}{}
		}
	}
	return set
}

// Analyze scans the given roots and derives duplicate and version groups.
func (s *Service) Analyze(roots []string) (*Analysis, error) {
	records, err := s.scanner.Scan(roots)
	if err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	s.logger.Info("scan complete", "files", len(records))

	dups := s.finder.FindDuplicates(records)
	s.logger.Info("duplicate detection complete", "groups", len(dups))

	vers := s.grouper.GroupVersions(records)
	s.logger.Info("version grouping complete", "groups", len(vers))

	return &Analysis{
		Records:    records,
		Duplicates: dups,
		Versions:   vers,
	}, nil
}
