package classify

import (
	"fmt"
	"os"
	"time"

	"tidy-go/internal/config"
	"tidy-go/internal/organizer"
)

// NewClassifierFromConfig creates a Classifier based on the classifier
// config type. Content-aware providers are wrapped with the extension
// fallback so classification never blocks a run.
func NewClassifierFromConfig(cfg config.ClassifierConfig, logger organizer.Logger) (organizer.Classifier, error) {
	switch cfg.Type {
	case "extension", "":
		return NewExtensionClassifier(), nil
	case "keyword":
		return NewFallbackClassifier(NewKeywordClassifier(), cfg.MaxFiles, logger), nil
	case "api":
		apiKey := ""
		if cfg.APIKeyEnv != "" {
			apiKey = os.Getenv(cfg.APIKeyEnv)
			if apiKey == "" {
				return nil, fmt.Errorf("environment variable %s is empty", cfg.APIKeyEnv)
			}
		}
		provider, err := NewAPIClassifier(APIOptions{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			APIKey:      apiKey,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			BatchSize:   cfg.BatchSize,
			Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return NewFallbackClassifier(provider, cfg.MaxFiles, logger), nil
	case "command":
		provider, err := NewCommandClassifier(cfg.Command,
			time.Duration(cfg.TimeoutSecs)*time.Second, cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		return NewFallbackClassifier(provider, cfg.MaxFiles, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.Type)
	}
}
