package organizer

import "errors"

// Classifier failure conditions. Both cause the planner to fall back to the
// default extension-based category rather than aborting the file's move.
var (
	// ErrUnavailable means the provider could not answer (timeout, quota,
	// unreadable content).
	ErrUnavailable = errors.New("classification unavailable")

	// ErrRejected means the content is legitimately unclassifiable.
	ErrRejected = errors.New("classification rejected")
)

// Classifier assigns a category to a file.
type Classifier interface {
	Classify(record FileRecord) (Category, error)
}

// BatchClassifier is implemented by providers that can process many files per
// call. The planner uses it opportunistically; batching is otherwise
// invisible. Results are positional: result[i] answers records[i], and a nil
// error with an empty category at position i means that file failed.
type BatchClassifier interface {
	Classifier
	ClassifyBatch(records []FileRecord) ([]Category, []error)
}
