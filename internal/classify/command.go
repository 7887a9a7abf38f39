package classify

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"tidy-go/internal/organizer"
)

// CommandClassifier shells out to a local model CLI (gemini, ollama run,
// llm). The prompt goes in as the last argument; the answer is expected on
// stdout as a JSON array in the same shape the API provider uses.
type CommandClassifier struct {
	command   string
	args      []string
	timeout   time.Duration
	batchSize int
}

// NewCommandClassifier creates a CommandClassifier. command is split on
// whitespace; everything after the first token is passed as leading
// arguments.
func NewCommandClassifier(command string, timeout time.Duration, batchSize int) (*CommandClassifier, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("command required for command classifier")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &CommandClassifier{
		command:   fields[0],
		args:      fields[1:],
		timeout:   timeout,
		batchSize: batchSize,
	}, nil
}

func (c *CommandClassifier) Classify(record organizer.FileRecord) (organizer.Category, error) {
	cats, errs := c.ClassifyBatch([]organizer.FileRecord{record})
	if errs[0] != nil {
		return "", errs[0]
	}
	return cats[0], nil
}

// ClassifyBatch runs the CLI once per chunk. Results are positional.
func (c *CommandClassifier) ClassifyBatch(records []organizer.FileRecord) ([]organizer.Category, []error) {
	cats := make([]organizer.Category, len(records))
	errs := make([]error, len(records))

	for start := 0; start < len(records); start += c.batchSize {
		end := start + c.batchSize
		if end > len(records) {
			end = len(records)
		}
		c.classifyChunk(records[start:end], cats[start:end], errs[start:end])
	}
	return cats, errs
}

func (c *CommandClassifier) classifyChunk(records []organizer.FileRecord, cats []organizer.Category, errs []error) {
	verdicts, err := c.run(records)
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return
	}

	byName := make(map[string]string, len(verdicts))
	for _, v := range verdicts {
		byName[v.Filename] = v.Category
	}
	for i, r := range records {
		name := filepath.Base(r.Path)
		answer, ok := byName[name]
		if !ok {
			errs[i] = fmt.Errorf("%w: no answer for %s", organizer.ErrUnavailable, name)
			continue
		}
		cat, ok := knownCategory(answer)
		if !ok {
			errs[i] = fmt.Errorf("%w: unknown category %q", organizer.ErrRejected, answer)
			continue
		}
		cats[i] = cat
	}
}

func (c *CommandClassifier) run(records []organizer.FileRecord) ([]verdict, error) {
	var sb strings.Builder
	sb.WriteString("Classify each file into exactly one category from this list: ")
	sb.WriteString(strings.Join(categoryNames(), ", "))
	sb.WriteString("\n\nRespond with a JSON array only, one object per file: ")
	sb.WriteString(`[{"filename": "...", "category": "..."}]` + "\n")
	for i, r := range records {
		fmt.Fprintf(&sb, "\n[file %d]\nfilename: %s\n", i+1, filepath.Base(r.Path))
		if preview := readPreview(r.Path); preview != "" {
			fmt.Fprintf(&sb, "content:\n%s\n", preview)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), sb.String())
	out, err := exec.CommandContext(ctx, c.command, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: running %s: %v", organizer.ErrUnavailable, c.command, err)
	}
	return parseVerdicts(string(out))
}

// Compile-time check that CommandClassifier implements the BatchClassifier
// interface
var _ organizer.BatchClassifier = (*CommandClassifier)(nil)
