package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
	"github.com/kailas-cloud/docusort/internal/metrics"
)

// Source tells which path produced the vectors of an Outcome.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Fallback reasons, used as the metric label.
const (
	reasonUnconfigured  = "unconfigured"
	reasonBudget        = "budget"
	reasonProviderError = "provider_error"
	reasonCountMismatch = "count_mismatch"
)

// Outcome is the result of one gateway call. Vectors always has one entry per
// input text. Err holds the primary failure when Source is SourceFallback.
type Outcome struct {
	Vectors     [][]float32
	Source      Source
	Err         error
	TotalTokens int
}

// Gateway turns texts into vectors, preferring the primary provider and
// degrading to deterministic offline vectors.
type Gateway struct {
	primary  domain.BatchEmbedder
	fallback *FallbackEmbedder
	logger   *zap.Logger
}

// NewGateway creates a gateway. A nil primary means every call is served offline.
func NewGateway(primary domain.BatchEmbedder, fallback *FallbackEmbedder, logger *zap.Logger) *Gateway {
	if fallback == nil {
		fallback = NewFallbackEmbedder(FallbackDimensions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{primary: primary, fallback: fallback, logger: logger}
}

// Online reports whether a primary provider is configured.
func (g *Gateway) Online() bool { return g.primary != nil }

// Embed vectorizes texts with a single primary call. It never returns an error:
// primary failures are reported in Outcome.Err and served from the fallback.
func (g *Gateway) Embed(ctx context.Context, texts []string) Outcome {
	if len(texts) == 0 {
		return Outcome{Source: SourcePrimary}
	}

	if g.primary == nil {
		return g.degrade(ctx, texts, reasonUnconfigured, nil)
	}

	res, err := g.primary.BatchEmbed(ctx, texts)
	switch {
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return g.degrade(ctx, texts, reasonBudget, err)
	case err != nil:
		return g.degrade(ctx, texts, reasonProviderError, err)
	case len(res.Embeddings) != len(texts):
		return g.degrade(ctx, texts, reasonCountMismatch, fmt.Errorf(
			"%w: got %d vectors for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(texts)))
	}

	domain.UsageFromContext(ctx).Record(res.TotalTokens, false)
	return Outcome{
		Vectors:     res.Embeddings,
		Source:      SourcePrimary,
		TotalTokens: res.TotalTokens,
	}
}

// EmbedQuery vectorizes a single query string.
func (g *Gateway) EmbedQuery(ctx context.Context, query string) ([]float32, Source) {
	out := g.Embed(ctx, []string{query})
	return out.Vectors[0], out.Source
}

func (g *Gateway) degrade(ctx context.Context, texts []string, reason string, cause error) Outcome {
	metrics.EmbeddingFallbackTotal.WithLabelValues(reason).Inc()

	if reason != reasonUnconfigured {
		g.logger.Warn("Embedding provider unavailable, using offline vectors",
			zap.String("reason", reason),
			zap.Int("texts", len(texts)),
			zap.Error(cause),
		)
	}

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = g.fallback.Vector(t)
	}
	domain.UsageFromContext(ctx).Record(0, true)
	return Outcome{Vectors: vectors, Source: SourceFallback, Err: cause}
}
