package story

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/models"
)

type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

var errEmptyResponse = errors.New("empty response from story provider")

// Result is the outcome of one generation attempt. Story is always set; Err records why
// the fallback template was used when Source is SourceFallback.
type Result struct {
	Story  string
	Source Source
	Err    error
}

func (r Result) Degraded() bool {
	return r.Source == SourceFallback
}

type Generator struct {
	provider Provider
	timeout  time.Duration
}

func NewGenerator(provider Provider, timeout time.Duration) *Generator {
	return &Generator{provider: provider, timeout: timeout}
}

func (g *Generator) ProviderName() string {
	if g.provider == nil {
		return "none"
	}
	return g.provider.Name()
}

func (g *Generator) Available() bool {
	return g.provider != nil && g.provider.IsEnabled()
}

// Generate never fails: provider errors and empty replies produce the fallback narrative.
func (g *Generator) Generate(ctx context.Context, data models.AnalysisData) Result {
	if !g.Available() {
		log.Debug("Story provider not configured, using fallback narrative")
		return fallback(data, ErrProviderDisabled)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.provider.Generate(ctx, BuildPrompt(data))
	if err != nil {
		log.Errorf("Error generating story with %s: %v", g.provider.Name(), err)
		return fallback(data, err)
	}
	if strings.TrimSpace(text) == "" {
		log.Errorf("Story provider %s returned an empty response", g.provider.Name())
		return fallback(data, errEmptyResponse)
	}

	log.Infof("Generated story with %s in %v", g.provider.Name(), time.Since(start).Round(time.Millisecond))
	return Result{Story: text, Source: SourceModel}
}

func fallback(data models.AnalysisData, err error) Result {
	return Result{Story: FallbackStory(data), Source: SourceFallback, Err: err}
}
