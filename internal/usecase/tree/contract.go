package tree

import (
	"context"

	"github.com/kailas-cloud/docusort/internal/domain/document"
)

// DocumentLister lists indexed documents.
type DocumentLister interface {
	ListDocuments() []document.Document
}

// Completer returns the model's JSON object reply to a system and user prompt.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}
