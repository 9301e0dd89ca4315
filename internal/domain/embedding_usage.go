package domain

import (
	"context"
	"time"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding activity for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// services write after each gateway call; the handler reads it for response headers.
type EmbeddingUsage struct {
	TotalTokens int
	Calls       int
	Fallbacks   int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Record registers one gateway call. Safe on a nil receiver.
func (u *EmbeddingUsage) Record(tokens int, fallback bool) {
	if u == nil {
		return
	}
	u.Calls++
	u.TotalTokens += tokens
	if fallback {
		u.Fallbacks++
	}
}

// TokenWindow is the state of one budget window. Limit 0 means unlimited,
// in which case Remaining is -1.
type TokenWindow struct {
	Start     time.Time
	Used      int64
	Limit     int64
	Remaining int64
}
