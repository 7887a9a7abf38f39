// Package version groups files that are successive versions of the same
// document, based on filename markers.
package version

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tidy-go/internal/organizer"
)

// Marker grammar. Numeric versions (v1, ver2), numeric suffixes ((1), [2],
// _3), date-like tokens, and revision keywords in the supported locale set
// are stripped from the stem; the lowercased residual is the group key.
var (
	numericMarker = regexp.MustCompile(`(?i)[_\-\s]?(?:v|ver|rev|revision)(\d+)`)
	parenMarker   = regexp.MustCompile(`\((\d+)\)|\[(\d+)\]`)
	suffixMarker  = regexp.MustCompile(`[_\-](\d{1,3})$`)
	dateMarker    = regexp.MustCompile(`[_\-\s]?(\d{4})[-_.]?(\d{2})[-_.]?(\d{2})`)
	keywordMarker = regexp.MustCompile(`(?i)[_\-\s]?(final|최종|완성|완료|수정본|수정|draft|초안|임시|temp|backup|백업|bak|copy|복사본|사본|old|new|latest|original)`)
	separators    = regexp.MustCompile(`[_\-\s]+`)
)

// finalKeywords rank above any numeric or date marker when ordering a group.
var finalKeywords = map[string]struct{}{
	"final": {}, "최종": {}, "완성": {}, "완료": {},
}

// Grouper extracts version information from filenames and clusters records
// by their normalized base name.
type Grouper struct{}

// New creates a Grouper.
func New() *Grouper { return &Grouper{} }

// GroupVersions returns groups with at least two members, sorted by group
// key for deterministic output. Candidates inside each group are in
// ascending version order; the last is canonical.
func (g *Grouper) GroupVersions(records []organizer.FileRecord) []organizer.VersionGroup {
	type key struct {
		base string
		ext  string
	}
	buckets := make(map[key][]organizer.VersionCandidate)

	for _, r := range records {
		c := extract(r)
		k := key{base: c.Base, ext: strings.ToLower(filepath.Ext(r.Path))}
		buckets[k] = append(buckets[k], c)
	}

	var groups []organizer.VersionGroup
	for k, candidates := range buckets {
		// A lone file seeds a key but only materializes a group with a
		// sibling.
		if len(candidates) < 2 {
			continue
		}
		sortCandidates(candidates)
		groups = append(groups, organizer.VersionGroup{
			Key:        k.base,
			Ext:        k.ext,
			Candidates: candidates,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key != groups[j].Key {
			return groups[i].Key < groups[j].Key
		}
		return groups[i].Ext < groups[j].Ext
	})
	return groups
}

// extract parses version markers out of a record's filename.
func extract(r organizer.FileRecord) organizer.VersionCandidate {
	base := filepath.Base(r.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	c := organizer.VersionCandidate{Record: r, Number: -1}

	if m := numericMarker.FindStringSubmatch(stem); m != nil {
		c.Token = strings.TrimLeft(m[0], "_- ")
		if n, err := strconv.Atoi(m[1]); err == nil {
			c.Number = n
		}
	}
	if m := parenMarker.FindStringSubmatch(stem); m != nil && c.Number < 0 {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		c.Token = m[0]
		if n, err := strconv.Atoi(digits); err == nil {
			c.Number = n
		}
	}
	if m := suffixMarker.FindStringSubmatch(stem); m != nil && c.Number < 0 && !dateMarker.MatchString(stem) {
		c.Token = m[0]
		if n, err := strconv.Atoi(m[1]); err == nil {
			c.Number = n
		}
	}

	if m := dateMarker.FindStringSubmatch(stem); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if year >= 1990 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			c.Date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			if c.Token == "" {
				c.Token = m[0]
			}
		}
	}

	if m := keywordMarker.FindStringSubmatch(stem); m != nil {
		word := strings.ToLower(m[1])
		if _, ok := finalKeywords[word]; ok {
			c.Final = true
		}
		if c.Token == "" {
			c.Token = word
		}
	}

	c.Base = normalize(stem)
	return c
}

// normalize strips every recognized marker and squeezes separators; an empty
// residual falls back to the lowercased stem so the file still seeds a key.
func normalize(stem string) string {
	s := numericMarker.ReplaceAllString(stem, "")
	s = parenMarker.ReplaceAllString(s, "")
	s = dateMarker.ReplaceAllString(s, "")
	s = keywordMarker.ReplaceAllString(s, "")
	s = suffixMarker.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_- ")
	s = strings.ToLower(s)
	if s == "" {
		return strings.ToLower(stem)
	}
	return s
}

// sortCandidates orders candidates ascending. Priority: final-class keyword,
// then parsed numeric version, then parsed date, then modification time,
// then path lexical order. A criterion only applies when it distinguishes
// the pair; lower-priority criteria break ties.
func sortCandidates(cs []organizer.VersionCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Final != b.Final {
			return !a.Final
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		if !a.Date.Equal(b.Date) {
			if a.Date.IsZero() || b.Date.IsZero() {
				return a.Date.IsZero()
			}
			return a.Date.Before(b.Date)
		}
		if !a.Record.ModTime.Equal(b.Record.ModTime) {
			return a.Record.ModTime.Before(b.Record.ModTime)
		}
		return a.Record.Path < b.Record.Path
	})
}
