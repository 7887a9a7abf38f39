// Package classify provides category classifiers for scanned files, from a
// plain extension table up to external model providers.
package classify

import (
	"path/filepath"
	"strings"

	"tidy-go/internal/organizer"
)

// Category names shared by every classifier.
const (
	CategoryDocuments organizer.Category = "Documents"
	CategoryImages    organizer.Category = "Images"
	CategoryVideos    organizer.Category = "Videos"
	CategoryAudio     organizer.Category = "Audio"
	CategoryArchives  organizer.Category = "Archives"
	CategoryCode      organizer.Category = "Code"
	CategoryData      organizer.Category = "Data"
	CategoryPrograms  organizer.Category = "Programs"
	CategoryOther     organizer.Category = "Other"
)

var extensionTable = map[string]organizer.Category{
	".pdf": CategoryDocuments, ".doc": CategoryDocuments, ".docx": CategoryDocuments,
	".xls": CategoryDocuments, ".xlsx": CategoryDocuments, ".ppt": CategoryDocuments,
	".pptx": CategoryDocuments, ".odt": CategoryDocuments, ".ods": CategoryDocuments,
	".hwp": CategoryDocuments, ".hwpx": CategoryDocuments, ".txt": CategoryDocuments,
	".md": CategoryDocuments, ".rtf": CategoryDocuments, ".epub": CategoryDocuments,

	".jpg": CategoryImages, ".jpeg": CategoryImages, ".png": CategoryImages,
	".gif": CategoryImages, ".bmp": CategoryImages, ".webp": CategoryImages,
	".svg": CategoryImages, ".heic": CategoryImages, ".tif": CategoryImages,
	".tiff": CategoryImages, ".raw": CategoryImages, ".ico": CategoryImages,

	".mp4": CategoryVideos, ".mkv": CategoryVideos, ".avi": CategoryVideos,
	".mov": CategoryVideos, ".wmv": CategoryVideos, ".webm": CategoryVideos,
	".flv": CategoryVideos, ".m4v": CategoryVideos,

	".mp3": CategoryAudio, ".wav": CategoryAudio, ".flac": CategoryAudio,
	".aac": CategoryAudio, ".ogg": CategoryAudio, ".m4a": CategoryAudio,
	".wma": CategoryAudio, ".opus": CategoryAudio,

	".zip": CategoryArchives, ".tar": CategoryArchives, ".gz": CategoryArchives,
	".bz2": CategoryArchives, ".xz": CategoryArchives, ".7z": CategoryArchives,
	".rar": CategoryArchives, ".tgz": CategoryArchives, ".zst": CategoryArchives,

	".go": CategoryCode, ".py": CategoryCode, ".js": CategoryCode,
	".ts": CategoryCode, ".java": CategoryCode, ".c": CategoryCode,
	".h": CategoryCode, ".cpp": CategoryCode, ".rs": CategoryCode,
	".rb": CategoryCode, ".sh": CategoryCode, ".sql": CategoryCode,
	".html": CategoryCode, ".css": CategoryCode,

	".json": CategoryData, ".yaml": CategoryData, ".yml": CategoryData,
	".toml": CategoryData, ".csv": CategoryData, ".tsv": CategoryData,
	".xml": CategoryData, ".parquet": CategoryData, ".db": CategoryData,
	".sqlite": CategoryData,

	".exe": CategoryPrograms, ".msi": CategoryPrograms, ".dmg": CategoryPrograms,
	".pkg": CategoryPrograms, ".deb": CategoryPrograms, ".rpm": CategoryPrograms,
	".apk": CategoryPrograms, ".appimage": CategoryPrograms,
}

// ExtensionClassifier maps file extensions to categories. It never fails:
// unknown extensions land in Other, so it also serves as the fallback behind
// every other provider.
type ExtensionClassifier struct{}

// NewExtensionClassifier creates an ExtensionClassifier.
func NewExtensionClassifier() *ExtensionClassifier {
	return &ExtensionClassifier{}
}

func (c *ExtensionClassifier) Classify(record organizer.FileRecord) (organizer.Category, error) {
	ext := strings.ToLower(filepath.Ext(record.Path))
	if cat, ok := extensionTable[ext]; ok {
		return cat, nil
	}
	return CategoryOther, nil
}

// Compile-time check that ExtensionClassifier implements the Classifier
// interface
var _ organizer.Classifier = (*ExtensionClassifier)(nil)
