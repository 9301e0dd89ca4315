package chi

import (
	"context"

	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	domtree "github.com/kailas-cloud/docusort/internal/domain/tree"
	chatuc "github.com/kailas-cloud/docusort/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/docusort/internal/usecase/health"
	"github.com/kailas-cloud/docusort/internal/usecase/ingest"
	usageuc "github.com/kailas-cloud/docusort/internal/usecase/usage"
)

// DocumentLister lists indexed documents and serves their extracted text.
type DocumentLister interface {
	ListDocuments() []document.Document
	GetDocumentText(id string) (string, bool)
}

// Ingester indexes stored uploads.
type Ingester interface {
	IngestAll(ctx context.Context, uploads []ingest.Upload) ([]document.Document, error)
}

// ChatService answers prompts and manages sessions.
type ChatService interface {
	Ask(ctx context.Context, req chatuc.AskRequest) (chatuc.AskResponse, error)
	List(ctx context.Context) ([]domchat.Summary, error)
	Get(ctx context.Context, id string) (domchat.Session, error)
	GeneratePnL(ctx context.Context, property, documentID string) (domchat.GeneratedPnL, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}

// TreeOrganizer builds and serves the folder tree of uploaded documents.
type TreeOrganizer interface {
	Sort(ctx context.Context) domtree.Node
	Latest(ctx context.Context) domtree.Node
}
