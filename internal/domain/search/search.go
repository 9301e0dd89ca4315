// Package search holds the query-side types shared by the index and its callers.
package search

// Options narrows a similarity search. The zero value searches every document
// with the index's default result cap.
type Options struct {
	TopK       int
	DocumentID string // empty searches the whole index
}
