package chi

import (
	"time"

	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
	"github.com/kailas-cloud/docusort/internal/domain/document"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes.
const (
	CodeBadRequest       = "bad_request"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeValidationFailed = "validation_failed"
	CodePayloadTooLarge  = "payload_too_large"
	CodeQuotaExceeded    = "embedding_quota_exceeded"
	CodeProviderError    = "embedding_provider_error"
	CodeGenerationFailed = "generation_unavailable"
	CodeInternalError    = "internal_error"
)

// PublicDocument is a document without its full text and storage path.
type PublicDocument struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MIMEType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Summary    string    `json:"summary"`
}

type documentsResponse struct {
	Documents []PublicDocument `json:"documents"`
}

type documentTextResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type chatsResponse struct {
	Chats []domchat.Summary `json:"chats"`
}

type chatResponse struct {
	Chat domchat.Session `json:"chat"`
}

type chatRequest struct {
	ChatID     *string `json:"chatId"`
	Prompt     string  `json:"prompt"`
	DocumentID *string `json:"documentId"`
}

type chatTurnResponse struct {
	ChatID           string                 `json:"chatId"`
	Message          domchat.Message        `json:"message"`
	RetrievedChunks  int                    `json:"retrievedChunks"`
	RelatedDocuments []domchat.RelatedChunk `json:"relatedDocuments"`
	GeneratedPnL     []domchat.GeneratedPnL `json:"generatedPnl"`
}

type pnlRequest struct {
	Property   string  `json:"property"`
	DocumentID *string `json:"documentId"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Model     string            `json:"model"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
	Chunks    int               `json:"chunks"`
}

func publicDocument(d document.Document) PublicDocument {
	return PublicDocument{
		ID:         d.ID(),
		Name:       d.Name(),
		MIMEType:   d.MIMEType(),
		Size:       d.Size(),
		UploadedAt: d.UploadedAt(),
		Summary:    d.Summary(),
	}
}

func publicDocuments(docs []document.Document) []PublicDocument {
	out := make([]PublicDocument, len(docs))
	for i, d := range docs {
		out[i] = publicDocument(d)
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
