package document

import (
	"time"

	"github.com/google/uuid"
)

// Metadata describes an ingested file before it is registered in the index.
// ID and UploadedAt are filled in by New when left empty.
type Metadata struct {
	ID         string
	Name       string
	MIMEType   string
	Size       int64
	UploadedAt time.Time
	Summary    string
	FullText   string
	Path       string
}

// Document is the document aggregate (immutable value object).
type Document struct {
	id         string
	name       string
	mimeType   string
	size       int64
	uploadedAt time.Time
	summary    string
	fullText   string
	path       string
}

// New creates a Document from metadata, generating a UUID when ID is empty
// and stamping the current UTC time when UploadedAt is zero.
func New(m Metadata) Document {
	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	uploadedAt := m.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	return Document{
		id:         id,
		name:       m.Name,
		mimeType:   m.MIMEType,
		size:       m.Size,
		uploadedAt: uploadedAt,
		summary:    m.Summary,
		fullText:   m.FullText,
		path:       m.Path,
	}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Name returns the display name (original file name).
func (d Document) Name() string { return d.name }

// MIMEType returns the declared content type.
func (d Document) MIMEType() string { return d.mimeType }

// Size returns the upload size in bytes.
func (d Document) Size() int64 { return d.size }

// UploadedAt returns the ingestion timestamp.
func (d Document) UploadedAt() time.Time { return d.uploadedAt }

// Summary returns the short extracted summary.
func (d Document) Summary() string { return d.summary }

// FullText returns the full extracted text.
func (d Document) FullText() string { return d.fullText }

// Path returns the server-side storage path. Not exposed to clients.
func (d Document) Path() string { return d.path }
