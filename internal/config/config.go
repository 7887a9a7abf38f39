package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default tuning values applied by Normalize when the config leaves them unset.
const (
	DefaultHashChunkSize = 64 * 1024
	DefaultHashWorkers   = 4
	DefaultMinFileSize   = 1
	DefaultBatchSize     = 20
	DefaultTimeoutSecs   = 30
	DefaultMaxFiles      = 200
)

// DefaultExcludedNames are directory/file names skipped during scans and sweeps
// unless the config overrides the set.
var DefaultExcludedNames = []string{
	".git", ".svn", ".hg", "__pycache__", "node_modules", ".venv", "venv",
	".idea", ".vscode", ".cache", "$RECYCLE.BIN", "System Volume Information",
}

// Config represents the main configuration for tidy.
type Config struct {
	Targets          []string `toml:"targets"`
	ArchiveRoot      string   `toml:"archive_root"`
	LogDir           string   `toml:"log_dir"`
	ExcludedNames    []string `toml:"excluded_names"`
	KeeperPolicy     string   `toml:"keeper_policy"`    // "oldest", "newest", or "shortest-path"
	DateGranularity  string   `toml:"date_granularity"` // "none", "year", or "year-month"
	CollapseVersions bool     `toml:"collapse_versions"`
	MinFileSize      int64    `toml:"min_file_size"`
	HashChunkSize    int      `toml:"hash_chunk_size"`
	HashWorkers      int      `toml:"hash_workers"`

	Journal    JournalConfig    `toml:"journal"`
	Classifier ClassifierConfig `toml:"classifier"`
	Mirror     MirrorConfig     `toml:"mirror"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// JournalConfig represents configuration for the operation journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ClassifierConfig represents configuration for the category classifier.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ClassifierConfig struct {
	Type        string  `toml:"type"` // "extension", "keyword", "api", or "command"
	Model       string  `toml:"model,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	APIKeyEnv   string  `toml:"api_key_env,omitempty"`
	Command     string  `toml:"command,omitempty"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	BatchSize   int     `toml:"batch_size"`
	TimeoutSecs int     `toml:"timeout_seconds"`
	MaxFiles    int     `toml:"max_files"` // above this many candidates, fall back to extension
}

// MirrorConfig represents configuration for the journal mirror backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type MirrorConfig struct {
	Type string `toml:"type"` // "none", "filesystem", or "s3"
	Root string `toml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// Optional static credentials, read from the named environment variables.
	// When unset the default AWS credential chain applies.
	S3AccessKeyEnv string `toml:"s3_access_key_env,omitempty"`
	S3SecretKeyEnv string `toml:"s3_secret_key_env,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt mirrored
// journal snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default) or "age"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// NewConfig creates a Config with defaults rooted under baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		ArchiveRoot:      filepath.Join(baseDir, "archive"),
		LogDir:           filepath.Join(baseDir, "log"),
		ExcludedNames:    append([]string{}, DefaultExcludedNames...),
		KeeperPolicy:     "oldest",
		DateGranularity:  "year",
		CollapseVersions: false,
		MinFileSize:      DefaultMinFileSize,
		HashChunkSize:    DefaultHashChunkSize,
		HashWorkers:      DefaultHashWorkers,
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "journal"),
		},
		Classifier: ClassifierConfig{
			Type:        "extension",
			Temperature: 0.3,
			MaxTokens:   500,
			BatchSize:   DefaultBatchSize,
			TimeoutSecs: DefaultTimeoutSecs,
			MaxFiles:    DefaultMaxFiles,
		},
		Mirror:     MirrorConfig{Type: "none"},
		Encryption: EncryptionConfig{Type: "none"},
	}
}

// Validate checks that enum-valued fields hold one of their allowed values.
func (c *Config) Validate() error {
	switch c.KeeperPolicy {
	case "oldest", "newest", "shortest-path":
	default:
		return fmt.Errorf("invalid keeper_policy: %q", c.KeeperPolicy)
	}
	switch c.DateGranularity {
	case "none", "year", "year-month":
	default:
		return fmt.Errorf("invalid date_granularity: %q", c.DateGranularity)
	}
	if c.ArchiveRoot == "" {
		return fmt.Errorf("archive_root must be set")
	}
	return nil
}

// Normalize fills zero-valued tuning fields with their defaults.
func (c *Config) Normalize() {
	if c.KeeperPolicy == "" {
		c.KeeperPolicy = "oldest"
	}
	if c.DateGranularity == "" {
		c.DateGranularity = "none"
	}
	if c.MinFileSize <= 0 {
		c.MinFileSize = DefaultMinFileSize
	}
	if c.HashChunkSize <= 0 {
		c.HashChunkSize = DefaultHashChunkSize
	}
	if c.HashWorkers <= 0 {
		c.HashWorkers = DefaultHashWorkers
	}
	if c.Classifier.BatchSize <= 0 {
		c.Classifier.BatchSize = DefaultBatchSize
	}
	if c.Classifier.TimeoutSecs <= 0 {
		c.Classifier.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.Classifier.MaxFiles <= 0 {
		c.Classifier.MaxFiles = DefaultMaxFiles
	}
}

// ExcludedNameSet returns the excluded names as a set for fast lookup.
func (c *Config) ExcludedNameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ExcludedNames))
	for _, name := range c.ExcludedNames {
		set[name] = struct{}{}
	}
	return set
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
