package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tidy-go/internal/organizer"
)

// previewLimit bounds the content sent per file.
const previewLimit = 2000

// APIClassifier asks an OpenAI-compatible chat completions endpoint to
// categorize files. Provider trouble surfaces as ErrUnavailable; an answer
// outside the known category set surfaces as ErrRejected.
type APIClassifier struct {
	client      *http.Client
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	batchSize   int
}

// APIOptions configures an APIClassifier.
type APIOptions struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	BatchSize   int
	Timeout     time.Duration
}

// NewAPIClassifier creates an APIClassifier.
func NewAPIClassifier(opts APIOptions) (*APIClassifier, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base_url required for api classifier")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model required for api classifier")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &APIClassifier{
		client:      &http.Client{Timeout: opts.Timeout},
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		model:       opts.Model,
		apiKey:      opts.APIKey,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		batchSize:   opts.BatchSize,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
}

func (c *APIClassifier) Classify(record organizer.FileRecord) (organizer.Category, error) {
	cats, errs := c.ClassifyBatch([]organizer.FileRecord{record})
	if errs[0] != nil {
		return "", errs[0]
	}
	return cats[0], nil
}

// ClassifyBatch sends records in chunks of the configured batch size.
// Results are positional.
func (c *APIClassifier) ClassifyBatch(records []organizer.FileRecord) ([]organizer.Category, []error) {
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

func (c *APIClassifier) classifyChunk(records []organizer.FileRecord, cats []organizer.Category, errs []error) {
	verdicts, err := c.ask(records)
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

func (c *APIClassifier) ask(records []organizer.FileRecord) ([]verdict, error) {
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

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: sb.String()}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", organizer.ErrUnavailable, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", organizer.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", organizer.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned %s", organizer.ErrUnavailable, resp.Status)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", organizer.ErrUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", organizer.ErrUnavailable)
	}
	return parseVerdicts(parsed.Choices[0].Message.Content)
}

// parseVerdicts pulls the JSON array out of a model answer that may carry
// surrounding prose.
func parseVerdicts(answer string) ([]verdict, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in answer", organizer.ErrUnavailable)
	}
	var verdicts []verdict
	if err := json.Unmarshal([]byte(answer[start:end+1]), &verdicts); err != nil {
		return nil, fmt.Errorf("%w: parsing answer: %v", organizer.ErrUnavailable, err)
	}
	return verdicts, nil
}

func readPreview(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, previewLimit)
	n, _ := f.Read(buf)
	head := buf[:n]
	if !looksTextual(head) {
		return ""
	}
	return string(head)
}

func categoryNames() []string {
	return []string{
		string(CategoryDocuments), string(CategoryImages), string(CategoryVideos),
		string(CategoryAudio), string(CategoryArchives), string(CategoryCode),
		string(CategoryData), string(CategoryPrograms), string(CategoryOther),
	}
}

func knownCategory(name string) (organizer.Category, bool) {
	for _, known := range categoryNames() {
		if strings.EqualFold(name, known) {
			return organizer.Category(known), true
		}
	}
	return "", false
}

// Compile-time check that APIClassifier implements the BatchClassifier
// interface
var _ organizer.BatchClassifier = (*APIClassifier)(nil)
