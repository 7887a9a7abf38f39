package organizer

import "sort"

// BuildPlan classifies the records that need a destination category and asks
// the planner for the ordered operation list. Surplus duplicates and older
// versions are routed by policy, not by classifier, so they are not
// classified. The resulting plan is deterministic: the same analysis and
// classifier outputs yield the same operation list.
func (s *Service) BuildPlan(a *Analysis, collapseVersions bool) (Plan, error) {
	surplus := a.SurplusPaths()
	older := map[string]struct{}{}
	if collapseVersions {
		older = a.OlderVersionPaths()
	}

	var toClassify []FileRecord
	for _, r := range a.Records {
		if _, ok := surplus[r.Path]; ok {
			continue
		}
		if _, ok := older[r.Path]; ok {
			continue
		}
		toClassify = append(toClassify, r)
	}

	cats := s.classifyAll(toClassify)

	plan := s.planner.BuildPlan(a.Records, a.Duplicates, a.Versions, cats)
	s.logger.Info("plan built", "operations", len(plan))
	return plan, nil
}

// classifyAll resolves a category for every record, preferring the batch
// interface when the provider offers one. Classification failures never
// abort planning: the classifier stack is expected to fall back internally,
// and any record that still comes back empty is retried individually.
func (s *Service) classifyAll(records []FileRecord) map[string]Category {
	// Classify in path order so provider batching is deterministic.
	ordered := make([]FileRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	cats := make(map[string]Category, len(ordered))

	if batcher, ok := s.classifier.(BatchClassifier); ok {
		results, errs := batcher.ClassifyBatch(ordered)
		for i, r := range ordered {
			if i < len(results) && results[i] != "" && (errs == nil || errs[i] == nil) {
				cats[r.Path] = results[i]
			}
		}
	}

	for _, r := range ordered {
		if _, done := cats[r.Path]; done {
			continue
		}
		cat, err := s.classifier.Classify(r)
		if err != nil {
			s.logger.Warn("classification failed", "path", r.Path, "error", err)
			continue
		}
		cats[r.Path] = cat
	}

	return cats
}
