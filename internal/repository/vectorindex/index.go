// Package vectorindex is the in-memory chunk store searched by linear cosine scan.
//
// Vectors are unit-normalized on write, so similarity is a plain dot product.
// Nothing is persisted: the index lives for the life of the process.
package vectorindex

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/docusort/internal/domain"
	"github.com/kailas-cloud/docusort/internal/domain/chunk"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	"github.com/kailas-cloud/docusort/internal/domain/search"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
	"github.com/kailas-cloud/docusort/internal/domain/vector"
	"github.com/kailas-cloud/docusort/internal/metrics"
)

const (
	// DefaultTopK is the result cap when SearchOptions.TopK is unset.
	DefaultTopK = 8
	// MinScore is the exclusive lower bound for a result to be returned.
	MinScore = 0.02
)

// SearchOptions narrows a search. Zero value means top 8 over all documents.
type SearchOptions = search.Options

// Stats is a point-in-time size of the index.
type Stats struct {
	Documents int
	Chunks    int
}

type entry struct {
	chunk chunk.Chunk
	doc   document.Document
}

// Index holds documents and their chunks. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	docs    map[string]document.Document
	order   []string // document IDs in insertion order
	entries []entry  // replaced, never mutated in place
}

// New returns an empty index.
func New() *Index {
	return &Index{docs: make(map[string]document.Document)}
}

// AddDocument stores a document and its chunks in one step: a concurrent
// search sees either none or all of them. Chunk order is the draft position;
// chunk IDs default to <docID>-chunk-<position>.
func (x *Index) AddDocument(meta document.Metadata, drafts []chunk.Draft) (document.Document, error) {
	doc := document.New(meta)

	added := make([]entry, len(drafts))
	for i, d := range drafts {
		id := d.ID
		if id == "" {
			id = chunk.DeriveID(doc.ID(), i)
		}
		added[i] = entry{
			chunk: chunk.New(id, doc.ID(), d.Text, i, vector.Normalize(d.Vector)),
			doc:   doc,
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.docs[doc.ID()]; exists {
		return document.Document{}, fmt.Errorf("document %s already indexed: %w", doc.ID(), domain.ErrInvalidInput)
	}

	next := make([]entry, 0, len(x.entries)+len(added))
	next = append(next, x.entries...)
	next = append(next, added...)

	x.docs[doc.ID()] = doc
	x.order = append(x.order, doc.ID())
	x.entries = next

	metrics.IndexDocuments.Set(float64(len(x.docs)))
	metrics.IndexChunks.Set(float64(len(x.entries)))
	return doc, nil
}

// ListDocuments returns all documents, newest upload first.
func (x *Index) ListDocuments() []document.Document {
	x.mu.RLock()
	out := make([]document.Document, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, x.docs[id])
	}
	x.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt().After(out[j].UploadedAt())
	})
	return out
}

// GetDocument looks up a document by ID.
func (x *Index) GetDocument(id string) (document.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.docs[id]
	return doc, ok
}

// GetDocumentText returns the full extracted text of a document.
func (x *Index) GetDocumentText(id string) (string, bool) {
	doc, ok := x.GetDocument(id)
	if !ok {
		return "", false
	}
	return doc.FullText(), true
}

// Search ranks chunks by cosine similarity to query. Results are sorted by
// descending score with ties in insertion order, cut to TopK, and only scores
// above MinScore are kept. The query need not be normalized.
func (x *Index) Search(query []float32, opts SearchOptions) []result.Result {
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	x.mu.RLock()
	snapshot := x.entries
	x.mu.RUnlock()

	q := vector.Normalize(query)
	scored := make([]result.Result, 0, len(snapshot))
	for _, e := range snapshot {
		if opts.DocumentID != "" && e.chunk.DocumentID() != opts.DocumentID {
			continue
		}
		scored = append(scored, result.New(e.chunk, vector.Dot(q, e.chunk.Vector()), e.doc))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := scored[:0]
	for _, r := range scored {
		if r.Score() > MinScore {
			out = append(out, r)
		}
	}
	return out
}

// Clear drops every document and chunk.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.docs = make(map[string]document.Document)
	x.order = nil
	x.entries = nil

	metrics.IndexDocuments.Set(0)
	metrics.IndexChunks.Set(0)
}

// Stats reports document and chunk counts.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Stats{Documents: len(x.docs), Chunks: len(x.entries)}
}
