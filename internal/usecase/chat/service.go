// Package chat runs a question-answering turn over the indexed documents.
package chat

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	domfin "github.com/kailas-cloud/docusort/internal/domain/finance"
	"github.com/kailas-cloud/docusort/internal/domain/search"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
)

const (
	// DefaultTopK is the number of chunks retrieved per turn.
	DefaultTopK = 6

	snippetLen  = 280
	maxTitleLen = 60

	// GeneratedRoute is the URL prefix artifacts are served under.
	GeneratedRoute = "/generated"
)

// AskRequest is one user turn.
type AskRequest struct {
	ChatID     string
	Prompt     string
	DocumentID string
}

// AskResponse is the assistant turn plus the retrieval details behind it.
type AskResponse struct {
	ChatID           string
	Message          domchat.Message
	RetrievedChunks  int
	RelatedDocuments []domchat.RelatedChunk
	GeneratedPnL     []domchat.GeneratedPnL
}

// Service coordinates retrieval, answering, P&L packages and session storage.
type Service struct {
	store        Store
	embedder     QueryEmbedder
	index        Index
	answerer     Answerer
	pnl          PnLGenerator
	generatedDir string
	topK         int
	now          func() time.Time
	logger       *zap.Logger
}

// New creates the service. topK <= 0 uses DefaultTopK.
func New(
	store Store, e QueryEmbedder, idx Index, a Answerer, pnl PnLGenerator,
	generatedDir string, topK int, logger *zap.Logger,
) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		store:        store,
		embedder:     e,
		index:        idx,
		answerer:     a,
		pnl:          pnl,
		generatedDir: generatedDir,
		topK:         topK,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// Ask answers a prompt and records both turns in the session.
func (s *Service) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	if req.Prompt == "" {
		return AskResponse{}, fmt.Errorf("prompt is required: %w", domain.ErrInvalidInput)
	}

	query, source := s.embedder.EmbedQuery(ctx, req.Prompt)
	results := s.index.Search(query, search.Options{TopK: s.topK, DocumentID: req.DocumentID})

	reply := s.answerer.Answer(ctx, req.Prompt, results)

	var focused *document.Document
	var focusedName *string
	if req.DocumentID != "" {
		if d, ok := s.index.GetDocument(req.DocumentID); ok {
			focused = &d
			name := d.Name()
			focusedName = &name
		}
	}

	asked := s.now()
	userMsg := domchat.Message{
		ID:        "user-" + uuid.NewString(),
		Role:      domchat.RoleUser,
		Content:   req.Prompt,
		CreatedAt: asked,
		Metadata:  &domchat.MessageMetadata{DocumentName: focusedName},
	}

	related := relatedChunks(results)
	generated := s.publicPackages(s.pnl.MaybeGenerate(ctx, req.Prompt, results, focused))

	answered := s.now()
	retrieved := len(results)
	meta := &domchat.MessageMetadata{
		RetrievedChunks:  &retrieved,
		RelatedDocuments: related,
		DocumentName:     focusedName,
	}
	if len(generated) > 0 {
		meta.GeneratedPnL = generated
	}
	assistantMsg := domchat.Message{
		ID:        "assistant-" + uuid.NewString(),
		Role:      domchat.RoleAssistant,
		Content:   reply,
		CreatedAt: answered,
		Metadata:  meta,
	}

	title := BuildTitle(req.Prompt)
	msgs := []domchat.Message{userMsg, assistantMsg}
	var sess domchat.Session
	var err error
	if req.ChatID != "" {
		sess, err = s.store.Append(ctx, req.ChatID, msgs, title)
	} else {
		sess, err = s.store.Create(ctx, title, msgs)
	}
	if err != nil {
		return AskResponse{}, fmt.Errorf("save chat: %w", err)
	}

	s.logger.Debug("Chat turn answered",
		zap.String("chat_id", sess.ID),
		zap.Int("retrieved_chunks", retrieved),
		zap.Int("pnl_packages", len(generated)),
		zap.String("embedding_source", string(source)),
	)

	return AskResponse{
		ChatID:           sess.ID,
		Message:          assistantMsg,
		RetrievedChunks:  retrieved,
		RelatedDocuments: related,
		GeneratedPnL:     generated,
	}, nil
}

// GeneratePnL builds one package on demand.
func (s *Service) GeneratePnL(ctx context.Context, property, documentID string) (domchat.GeneratedPnL, error) {
	pkg, err := s.pnl.GeneratePackage(ctx, property, documentID)
	if err != nil {
		return domchat.GeneratedPnL{}, err
	}
	return s.publicPackage(pkg), nil
}

// List returns session summaries.
func (s *Service) List(ctx context.Context) ([]domchat.Summary, error) {
	return s.store.List(ctx)
}

// Get returns a full session.
func (s *Service) Get(ctx context.Context, id string) (domchat.Session, error) {
	return s.store.Get(ctx, id)
}

// BuildTitle derives a session title from the first prompt.
func BuildTitle(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return domchat.DefaultTitle
	}
	r := []rune(trimmed)
	if len(r) > maxTitleLen {
		return string(r[:maxTitleLen]) + "..."
	}
	return trimmed
}

func relatedChunks(results []result.Result) []domchat.RelatedChunk {
	out := make([]domchat.RelatedChunk, len(results))
	for i, r := range results {
		text := []rune(r.Chunk().Text())
		out[i] = domchat.RelatedChunk{
			DocumentID:   r.Document().ID(),
			ChunkID:      r.Chunk().ID(),
			Score:        math.Round(r.Score()*1e4) / 1e4,
			Snippet:      string(text[:min(len(text), snippetLen)]),
			DocumentName: r.Document().Name(),
		}
	}
	return out
}

func (s *Service) publicPackages(pkgs []domfin.Package) []domchat.GeneratedPnL {
	out := make([]domchat.GeneratedPnL, len(pkgs))
	for i, p := range pkgs {
		out[i] = s.publicPackage(p)
	}
	return out
}

func (s *Service) publicPackage(p domfin.Package) domchat.GeneratedPnL {
	sources := p.Figures.Sources
	if sources == nil {
		sources = []string{}
	}
	return domchat.GeneratedPnL{
		Property: p.Figures.Property,
		Summary:  p.Summary,
		CSVURL:   s.publicURL(p.CSVPath),
		XLSXURL:  s.publicURL(p.XLSXPath),
		Totals: domchat.Totals{
			Revenue:  p.Figures.Revenue,
			Expenses: p.Figures.Expenses,
			NOI:      p.Figures.NOI,
		},
		RetrievedChunks: p.RetrievedChunks,
		Sources:         sources,
	}
}

// publicURL maps a file under the generated directory to its served URL.
func (s *Service) publicURL(path string) string {
	rel, err := filepath.Rel(s.generatedDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return GeneratedRoute + "/" + filepath.ToSlash(rel)
}
