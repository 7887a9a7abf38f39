// Package dedupe groups files into exact-content duplicate sets.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"tidy-go/internal/organizer"
)

// Finder detects duplicates in two phases to minimize I/O: records are first
// bucketed by exact byte size (singleton buckets are discarded without any
// hashing), then multi-member buckets are sub-bucketed by streamed SHA-256.
type Finder struct {
	policy    organizer.KeeperPolicy
	chunkSize int
	workers   int
	logger    organizer.Logger
}

// New creates a Finder. chunkSize bounds memory while hashing large files;
// workers bounds hashing parallelism.
func New(policy organizer.KeeperPolicy, chunkSize, workers int, logger organizer.Logger) *Finder {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = organizer.NewNopLogger()
	}
	return &Finder{policy: policy, chunkSize: chunkSize, workers: workers, logger: logger}
}

type hashed struct {
	record organizer.FileRecord
	hash   string
}

// FindDuplicates returns the duplicate groups found in records, ordered by
// wasted bytes descending (hash ascending on ties) so output is stable. A
// hash-read failure removes that file from dedup consideration; it never
// aborts the run.
func (f *Finder) FindDuplicates(records []organizer.FileRecord) []organizer.DuplicateGroup {
	bySize := make(map[int64][]organizer.FileRecord)
	for _, r := range records {
		bySize[r.Size] = append(bySize[r.Size], r)
	}

	var candidates []organizer.FileRecord
	for _, bucket := range bySize {
		if len(bucket) > 1 {
			candidates = append(candidates, bucket...)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Fan-out hashing over a bounded worker pool; a single collector merges
	// results, so workers never share mutable state.
	jobs := make(chan organizer.FileRecord)
	results := make(chan hashed)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				h, err := f.hashFile(r.Path)
				if err != nil {
					f.logger.Warn("hash failed, excluding from dedup", "path", r.Path, "error", err)
					continue
				}
				r.Hash = h
				results <- hashed{record: r, hash: h}
			}
		}()
	}
	go func() {
		for _, r := range candidates {
			jobs <- r
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	byContent := make(map[string][]organizer.FileRecord)
	for h := range results {
		key := hashKey(h.record.Size, h.hash)
		byContent[key] = append(byContent[key], h.record)
	}

	var groups []organizer.DuplicateGroup
	for _, members := range byContent {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, f.buildGroup(members))
	}

	sort.Slice(groups, func(i, j int) bool {
		wi, wj := groups[i].WastedBytes(), groups[j].WastedBytes()
		if wi != wj {
			return wi > wj
		}
		return groups[i].Hash < groups[j].Hash
	})
	return groups
}

// buildGroup selects the keeper by policy and orders the surplus members
// deterministically by path.
func (f *Finder) buildGroup(members []organizer.FileRecord) organizer.DuplicateGroup {
	keeperIdx := 0
	for i := 1; i < len(members); i++ {
		if f.prefer(members[i], members[keeperIdx]) {
			keeperIdx = i
		}
	}

	group := organizer.DuplicateGroup{
		Hash:   members[keeperIdx].Hash,
		Size:   members[keeperIdx].Size,
		Keeper: members[keeperIdx],
	}
	for i, m := range members {
		if i != keeperIdx {
			group.Surplus = append(group.Surplus, m)
		}
	}
	sort.Slice(group.Surplus, func(i, j int) bool {
		return group.Surplus[i].Path < group.Surplus[j].Path
	})
	return group
}

// prefer reports whether a should be keeper over b under the configured
// policy. Ties always fall through to lexical path order, so the same file
// set and policy choose the same keeper every run.
func (f *Finder) prefer(a, b organizer.FileRecord) bool {
	switch f.policy {
	case organizer.KeepNewest:
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
	case organizer.KeepShortestPath:
		ca, cb := pathComponents(a.Path), pathComponents(b.Path)
		if ca != cb {
			return ca < cb
		}
	default: // KeepOldest
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.Before(b.ModTime)
		}
	}
	return a.Path < b.Path
}

func pathComponents(path string) int {
	return strings.Count(path, string(os.PathSeparator))
}

// hashFile computes the SHA-256 of a file, streamed in fixed-size chunks.
func (f *Finder) hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	buf := make([]byte, f.chunkSize)
	if _, err := io.CopyBuffer(h, file, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashKey(size int64, hash string) string {
	return hash + ":" + strconv.FormatInt(size, 10)
}
