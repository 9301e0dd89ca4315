package health

import (
	"context"

	"github.com/kailas-cloud/docusort/internal/repository/vectorindex"
)

// Pinger checks cache availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexStats reports the size of the vector index.
type IndexStats interface {
	Stats() vectorindex.Stats
}
