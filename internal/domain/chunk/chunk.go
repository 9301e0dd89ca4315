package chunk

import "fmt"

// Draft is a chunk as produced by ingestion, before the index assigns identity.
type Draft struct {
	ID     string // optional; derived from document ID and position when empty
	Text   string
	Vector []float32
}

// Chunk is a stored retrieval unit. Vector is unit-normalized at rest.
type Chunk struct {
	id         string
	documentID string
	text       string
	order      int
	vector     []float32
}

// New creates a Chunk.
func New(id, documentID, text string, order int, vector []float32) Chunk {
	return Chunk{id: id, documentID: documentID, text: text, order: order, vector: vector}
}

// DeriveID returns the deterministic chunk identifier for a document position.
func DeriveID(documentID string, position int) string {
	return fmt.Sprintf("%s-chunk-%d", documentID, position)
}

// ID returns the chunk identifier.
func (c Chunk) ID() string { return c.id }

// DocumentID returns the owning document identifier.
func (c Chunk) DocumentID() string { return c.documentID }

// Text returns the chunk text span.
func (c Chunk) Text() string { return c.text }

// Order returns the zero-based position within the owning document.
func (c Chunk) Order() int { return c.order }

// Vector returns the stored embedding vector.
func (c Chunk) Vector() []float32 { return c.vector }
