// Package story turns scene annotations into a narrative using a hosted text-generation
// model, with a fixed-template narrative when the model cannot be used.
package story

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrProviderDisabled = errors.New("story provider not configured")

// Provider is a text-generation backend. A provider without credentials reports
// IsEnabled false instead of failing at construction.
type Provider interface {
	Name() string
	IsEnabled() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider      string
	GoogleAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini", "google":
		return NewGeminiProvider(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown story provider %q", cfg.Provider)
	}
}
