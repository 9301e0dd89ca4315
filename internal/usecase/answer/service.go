// Package answer composes replies from retrieved chunks.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain/search/result"
	"github.com/kailas-cloud/docusort/internal/metrics"
)

const (
	offlineHeader  = "*Document-backed response (offline mode)*"
	offlineExcerpt = 220
)

// Generator produces an answer from a prompt and a block of source excerpts.
type Generator interface {
	Generate(ctx context.Context, prompt, contextBlock string) (string, error)
}

// Service answers prompts online when a generator is configured and falls back
// to a templated digest of the sources otherwise.
type Service struct {
	generator Generator
	logger    *zap.Logger
}

// New creates the service. generator can be nil.
func New(generator Generator, logger *zap.Logger) *Service {
	return &Service{generator: generator, logger: logger}
}

// Answer never fails: generator errors are logged and the offline template is returned.
func (s *Service) Answer(ctx context.Context, prompt string, results []result.Result) string {
	if s.generator != nil {
		text, err := s.generator.Generate(ctx, prompt, BuildContext(results))
		if err == nil {
			return text
		}
		s.logger.Warn("Generation failed, answering offline", zap.Error(err))
	}

	metrics.GenerationRequestsTotal.WithLabelValues("offline").Inc()
	return Offline(prompt, results)
}

// BuildContext renders results as numbered source sections.
func BuildContext(results []result.Result) string {
	sections := make([]string, len(results))
	for i, r := range results {
		sections[i] = fmt.Sprintf("Source %d (%s):\n%s", i+1, r.Document().Name(), r.Chunk().Text())
	}
	return strings.Join(sections, "\n\n")
}

// Offline is the answer used when no generator is reachable.
func Offline(prompt string, results []result.Result) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("- %s: %s", r.Document().Name(), excerpt(r.Chunk().Text(), offlineExcerpt))
	}
	return offlineHeader + "\n\n" + strings.Join(lines, "\n") + "\n\nAnswer: " + prompt
}

// excerpt cuts s to n runes, marking the cut with "...".
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
