package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/docusort/internal/domain"
)

func TestEmbed_CacheMissStores(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}, tokens: 10}
	ce, ms := newTestCachedEmbedder(t, inner)

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if len(ms.data) != 1 {
		t.Fatalf("expected 1 cached entry, got %d", len(ms.data))
	}
	if ms.lastTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %v", ms.lastTTL)
	}
}

func TestEmbed_CacheHitSkipsProvider(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("cached")] = vectorToCacheBytes([]float32{0.4, 0.5, 0.6})

	result, err := ce.Embed(context.Background(), "cached")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Errorf("expected 0 tokens on cache hit, got %d", result.TotalTokens)
	}
	if inner.batchCalls != 0 {
		t.Errorf("expected no provider call, got %d", inner.batchCalls)
	}
}

func TestBatchEmbed_MixedHitsMisses(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{9}, tokens: 3}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("b")] = vectorToCacheBytes([]float32{2})

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings[0][0] != 9 || res.Embeddings[1][0] != 2 || res.Embeddings[2][0] != 9 {
		t.Fatalf("expected misses from provider and hit from cache in order, got %v", res.Embeddings)
	}
	if strings.Join(inner.lastBatch, ",") != "a,c" {
		t.Errorf("expected only misses sent to provider, got %v", inner.lastBatch)
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected 6 tokens for two misses, got %d", res.TotalTokens)
	}
}

func TestBatchEmbed_StoreFailuresDegradeToProvider(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getErr = errors.New("connection refused")
	ms.setErr = errors.New("connection refused")

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("expected cache failure to be tolerated, got %v", err)
	}
	if len(res.Embeddings) != 2 || inner.batchCalls != 1 {
		t.Fatalf("expected provider to serve all texts, got %d vectors / %d calls", len(res.Embeddings), inner.batchCalls)
	}
}

func TestBatchEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("a")] = []byte{1, 2, 3}

	if _, err := ce.BatchEmbed(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected corrupt entry to be re-embedded")
	}
}

func TestBatchEmbed_InnerErrors(t *testing.T) {
	tests := []struct {
		name  string
		inner *mockEmbedder
	}{
		{"provider error", &mockEmbedder{err: domain.ErrEmbeddingProviderError}},
		{"short response", &mockEmbedder{vec: []float32{1}, short: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ce, ms := newTestCachedEmbedder(t, tc.inner)

			_, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
			}
			if len(ms.data) != 0 {
				t.Errorf("expected nothing cached on failure")
			}
		})
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	ce, _ := newTestCachedEmbedder(t, inner)

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Fatalf("expected empty result, got %v, %v", res, err)
	}
}

func TestCacheKey_ScopedByModel(t *testing.T) {
	a := New(nil, nil, "model-a", 0, nil, nil)
	b := New(nil, nil, "model-b", 0, nil, nil)

	if a.cacheKey("x") == b.cacheKey("x") {
		t.Error("expected different keys for different models")
	}
	if !strings.HasPrefix(a.cacheKey("x"), "docusort:emb:model-a:") {
		t.Errorf("unexpected key %q", a.cacheKey("x"))
	}
}
