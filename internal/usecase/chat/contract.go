package chat

import (
	"context"

	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	domfin "github.com/kailas-cloud/docusort/internal/domain/finance"
	"github.com/kailas-cloud/docusort/internal/domain/search"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
	"github.com/kailas-cloud/docusort/internal/usecase/embedding"
)

// Store persists chat sessions.
type Store interface {
	Get(ctx context.Context, id string) (domchat.Session, error)
	List(ctx context.Context) ([]domchat.Summary, error)
	Create(ctx context.Context, title string, msgs []domchat.Message) (domchat.Session, error)
	Append(ctx context.Context, id string, msgs []domchat.Message, titleHint string) (domchat.Session, error)
}

// QueryEmbedder vectorizes a prompt.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, embedding.Source)
}

// Index is the read side of the vector index.
type Index interface {
	Search(query []float32, opts search.Options) []result.Result
	GetDocument(id string) (document.Document, bool)
}

// Answerer writes the assistant reply.
type Answerer interface {
	Answer(ctx context.Context, prompt string, results []result.Result) string
}

// PnLGenerator builds P&L packages.
type PnLGenerator interface {
	GeneratePackage(ctx context.Context, property, documentID string) (domfin.Package, error)
	MaybeGenerate(ctx context.Context, prompt string, results []result.Result, focused *document.Document) []domfin.Package
}
