package classify

import (
	"errors"

	"tidy-go/internal/organizer"
)

// FallbackClassifier wraps a content-aware provider with the extension
// table. A provider failure on any record resolves through the extension
// table instead, and a batch larger than maxFiles skips the provider
// entirely so one oversized run cannot burn the provider's quota.
type FallbackClassifier struct {
	primary  organizer.Classifier
	fallback *ExtensionClassifier
	maxFiles int
	logger   organizer.Logger
}

// NewFallbackClassifier wraps primary. maxFiles <= 0 disables the batch
// threshold.
func NewFallbackClassifier(primary organizer.Classifier, maxFiles int, logger organizer.Logger) *FallbackClassifier {
	return &FallbackClassifier{
		primary:  primary,
		fallback: NewExtensionClassifier(),
		maxFiles: maxFiles,
		logger:   logger,
	}
}

func (c *FallbackClassifier) Classify(record organizer.FileRecord) (organizer.Category, error) {
	cat, err := c.primary.Classify(record)
	if err == nil {
		return cat, nil
	}
	if errors.Is(err, organizer.ErrUnavailable) || errors.Is(err, organizer.ErrRejected) {
		c.logger.Debug("falling back to extension classification", "path", record.Path, "cause", err)
		return c.fallback.Classify(record)
	}
	return "", err
}

// ClassifyBatch resolves every record. Errors never propagate; the
// extension table answers whatever the provider could not.
func (c *FallbackClassifier) ClassifyBatch(records []organizer.FileRecord) ([]organizer.Category, []error) {
	cats := make([]organizer.Category, len(records))
	errs := make([]error, len(records))

	if c.maxFiles > 0 && len(records) > c.maxFiles {
		c.logger.Info("batch exceeds provider limit, using extension classification",
			"files", len(records), "limit", c.maxFiles)
		for i, r := range records {
			cats[i], _ = c.fallback.Classify(r)
		}
		return cats, errs
	}

	if batcher, ok := c.primary.(organizer.BatchClassifier); ok {
		primaryCats, primaryErrs := batcher.ClassifyBatch(records)
		for i, r := range records {
			if primaryErrs[i] == nil && primaryCats[i] != "" {
				cats[i] = primaryCats[i]
				continue
			}
			cats[i], _ = c.fallback.Classify(r)
		}
		return cats, errs
	}

	for i, r := range records {
		cat, err := c.Classify(r)
		if err != nil {
			cats[i], _ = c.fallback.Classify(r)
			continue
		}
		cats[i] = cat
	}
	return cats, errs
}

// Compile-time check that FallbackClassifier implements the BatchClassifier
// interface
var _ organizer.BatchClassifier = (*FallbackClassifier)(nil)
