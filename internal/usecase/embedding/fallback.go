package embedding

import (
	"context"
	"crypto/sha256"
	"unicode/utf16"

	"github.com/kailas-cloud/docusort/internal/domain"
	"github.com/kailas-cloud/docusort/internal/domain/vector"
)

// FallbackDimensions is the width of offline vectors, matching text-embedding-3-small.
const FallbackDimensions = 1536

// FallbackEmbedder derives deterministic unit vectors from the text itself.
// Same text always yields the same vector, with or without network access.
type FallbackEmbedder struct {
	dims int
}

// NewFallbackEmbedder returns an embedder producing dims-wide vectors.
// Non-positive dims fall back to FallbackDimensions.
func NewFallbackEmbedder(dims int) *FallbackEmbedder {
	if dims <= 0 {
		dims = FallbackDimensions
	}
	return &FallbackEmbedder{dims: dims}
}

// Vector computes the offline vector for text.
//
// Component i mixes byte i mod 32 of the SHA-256 digest, scaled to [-1, 1],
// with the UTF-16 code unit at i mod len(text) reduced mod 32 and divided by 16.
func (f *FallbackEmbedder) Vector(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	units := utf16.Encode([]rune(text))

	v := make([]float32, f.dims)
	for i := range v {
		base := (float64(digest[i%len(digest)])/255)*2 - 1
		var code float64
		if len(units) > 0 {
			code = float64(units[i%len(units)] % 32)
		}
		v[i] = float32(base + code/16)
	}
	return vector.Normalize(v)
}

// Embed implements domain.Embedder. It never fails and reports no tokens.
func (f *FallbackEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.Vector(text)}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (f *FallbackEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.Vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}
