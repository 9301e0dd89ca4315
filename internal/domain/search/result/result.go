package result

import (
	"github.com/kailas-cloud/docusort/internal/domain/chunk"
	"github.com/kailas-cloud/docusort/internal/domain/document"
)

// Result is a single search hit: a chunk, its cosine score against the query
// and its owning document. Produced per query, never stored.
type Result struct {
	chunk    chunk.Chunk
	score    float64
	document document.Document
}

// New creates a search result.
func New(c chunk.Chunk, score float64, doc document.Document) Result {
	return Result{chunk: c, score: score, document: doc}
}

// Chunk returns the matched chunk.
func (r Result) Chunk() chunk.Chunk { return r.chunk }

// Score returns the cosine similarity against the query vector.
func (r Result) Score() float64 { return r.score }

// Document returns the owning document.
func (r Result) Document() document.Document { return r.document }
