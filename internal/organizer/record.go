package organizer

import "time"

// FileRecord describes a regular file discovered by a scan. Records are
// immutable once created; identity is the absolute path at scan time.
type FileRecord struct {
	Path    string    // absolute path
	Size    int64     // size in bytes
	ModTime time.Time // modification timestamp
	Hash    string    // SHA-256 hex, set lazily by the duplicate finder
}

// DuplicateGroup is a set of files sharing identical size and content hash.
// Exactly one member is the keeper; the rest are surplus, slated for
// relocation into the duplicates subtree. Groups always have at least two
// members in total.
type DuplicateGroup struct {
	Hash    string
	Size    int64
	Keeper  FileRecord
	Surplus []FileRecord
}

// Count returns the total number of files in the group, keeper included.
func (g *DuplicateGroup) Count() int {
	return 1 + len(g.Surplus)
}

// WastedBytes returns the space occupied by the surplus copies.
func (g *DuplicateGroup) WastedBytes() int64 {
	return int64(len(g.Surplus)) * g.Size
}

// VersionCandidate is a file together with the version information extracted
// from its name.
type VersionCandidate struct {
	Record FileRecord
	Base   string // normalized stem with version markers stripped
	Token  string // the raw marker matched in the filename, if any
	Number int    // parsed numeric version, -1 when absent
	Date   time.Time
	Final  bool // carries a final-class keyword, ranked above any numeric marker
}

// VersionGroup is an ordered sequence of candidates judged to be successive
// versions of the same document. Candidates are sorted ascending; the last
// one is canonical. Groups are only reported with two or more members.
type VersionGroup struct {
	Key        string // normalized base name
	Ext        string
	Candidates []VersionCandidate
}

// Canonical returns the member deemed latest.
func (g *VersionGroup) Canonical() VersionCandidate {
	return g.Candidates[len(g.Candidates)-1]
}

// Older returns every member except the canonical one.
func (g *VersionGroup) Older() []VersionCandidate {
	return g.Candidates[:len(g.Candidates)-1]
}

// Category is an opaque label assigned by a classifier, possibly with
// slash-separated segments (e.g. "Documents/Finance").
type Category string
