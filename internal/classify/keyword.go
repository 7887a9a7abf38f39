package classify

import (
	"os"
	"strings"
	"unicode/utf8"

	"tidy-go/internal/organizer"
)

// headLimit bounds how much of a file the keyword classifier reads.
const headLimit = 8 * 1024

var keywordTable = []struct {
	category organizer.Category
	words    []string
}{
	{CategoryDocuments, []string{"invoice", "receipt", "contract", "agreement", "report", "meeting", "minutes", "계약서", "보고서", "영수증", "회의록"}},
	{CategoryData, []string{"\"type\":", "schema", "dataset", "column", "rows"}},
	{CategoryCode, []string{"package ", "import ", "func ", "def ", "class ", "#include", "SELECT ", "function "}},
}

// KeywordClassifier reads the head of text files and matches category
// keywords. Binary or keyword-free content is rejected so the caller can
// fall back to the extension table.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(record organizer.FileRecord) (organizer.Category, error) {
	f, err := os.Open(record.Path)
	if err != nil {
		return "", organizer.ErrUnavailable
	}
	defer f.Close()

	buf := make([]byte, headLimit)
	n, err := f.Read(buf)
	if n == 0 {
		if err != nil {
			return "", organizer.ErrUnavailable
		}
		return "", organizer.ErrRejected
	}
	head := buf[:n]

	if !looksTextual(head) {
		return "", organizer.ErrRejected
	}

	text := strings.ToLower(string(head))
	for _, entry := range keywordTable {
		for _, word := range entry.words {
			if strings.Contains(text, strings.ToLower(word)) {
				return entry.category, nil
			}
		}
	}
	return "", organizer.ErrRejected
}

// looksTextual applies a cheap binary sniff: NUL bytes or a high share of
// invalid UTF-8 mean we should not keyword-match the content.
func looksTextual(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	invalid := 0
	for i := 0; i < len(head); {
		r, size := utf8.DecodeRune(head[i:])
		if r == 0 {
			return false
		}
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		i += size
	}
	return invalid*10 < len(head)
}

// Compile-time check that KeywordClassifier implements the Classifier
// interface
var _ organizer.Classifier = (*KeywordClassifier)(nil)
