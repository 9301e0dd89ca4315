package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
	domchat "github.com/kailas-cloud/docusort/internal/domain/chat"
	logpkg "github.com/kailas-cloud/docusort/internal/logger"
	chatuc "github.com/kailas-cloud/docusort/internal/usecase/chat"
	usageuc "github.com/kailas-cloud/docusort/internal/usecase/usage"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options holds file storage settings of the HTTP surface.
type Options struct {
	UploadsDir     string
	GeneratedDir   string
	MaxFiles       int
	MaxUploadBytes int64
}

// Server serves the document assistant API.
type Server struct {
	docs          DocumentLister
	ingester      Ingester
	chat          ChatService
	health        HealthChecker
	usage         UsageReporter
	tree          TreeOrganizer
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	docs DocumentLister,
	ingester Ingester,
	chat ChatService,
	health HealthChecker,
	usage UsageReporter,
	tree TreeOrganizer,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 10
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	s := &Server{
		docs:     docs,
		ingester: ingester,
		chat:     chat,
		health:   health,
		usage:    usage,
		tree:     tree,
		opts:     opts,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrChatNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrGenerationUnavailable, http.StatusBadGateway, CodeGenerationFailed),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/docs", s.ListDocuments)
		r.Get("/docs/{id}/text", s.GetDocumentText)
		r.Post("/upload", s.Upload)
		r.Get("/chats", s.ListChats)
		r.Get("/chats/{id}", s.GetChat)
		r.Post("/chat", s.Chat)
		r.Post("/generate/pnl", s.GeneratePnL)
		r.Get("/usage", s.GetUsage)
		r.Get("/files", s.ListFiles)
		r.Get("/tree", s.GetTree)
		r.Post("/sort", s.SortTree)
	})

	s.logger.Debug("Serving stored files",
		zap.String("uploads_dir", s.opts.UploadsDir),
		zap.String("generated_dir", s.opts.GeneratedDir),
	)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.opts.UploadsDir))))
	r.Handle("/generated/*", http.StripPrefix("/generated/", http.FileServer(http.Dir(s.opts.GeneratedDir))))
}

// ListDocuments handles GET /api/docs.
func (s *Server) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, documentsResponse{Documents: publicDocuments(s.docs.ListDocuments())})
}

// GetDocumentText handles GET /api/docs/{id}/text.
func (s *Server) GetDocumentText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	text, ok := s.docs.GetDocumentText(id)
	if !ok {
		s.handleDomainError(w, r, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound))
		return
	}
	writeJSON(w, http.StatusOK, documentTextResponse{ID: id, Text: text})
}

// ListChats handles GET /api/chats.
func (s *Server) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.chat.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if chats == nil {
		chats = []domchat.Summary{}
	}
	writeJSON(w, http.StatusOK, chatsResponse{Chats: chats})
}

// GetChat handles GET /api/chats/{id}.
func (s *Server) GetChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chat.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrChatNotFound) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Chat not found")
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Chat: sess})
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Prompt is required")
		return
	}

	ctx := logpkg.WithFields(r.Context(), zap.String("chat_id", deref(req.ChatID)))
	ctx, usage := domain.NewContextWithUsage(ctx)
	resp, err := s.chat.Ask(ctx, chatuc.AskRequest{
		ChatID:     deref(req.ChatID),
		Prompt:     req.Prompt,
		DocumentID: deref(req.DocumentID),
	})
	if err != nil {
		logpkg.FromContext(ctx).Error("Chat generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to generate response")
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, chatTurnResponse{
		ChatID:           resp.ChatID,
		Message:          resp.Message,
		RetrievedChunks:  resp.RetrievedChunks,
		RelatedDocuments: resp.RelatedDocuments,
		GeneratedPnL:     resp.GeneratedPnL,
	})
}

// GeneratePnL handles POST /api/generate/pnl.
func (s *Server) GeneratePnL(w http.ResponseWriter, r *http.Request) {
	var req pnlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if req.Property == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Property name is required")
		return
	}

	ctx := logpkg.WithFields(r.Context(), zap.String("property", req.Property))
	ctx, usage := domain.NewContextWithUsage(ctx)
	pnl, err := s.chat.GeneratePnL(ctx, req.Property, deref(req.DocumentID))
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Property name is required")
		return
	}
	if err != nil {
		logpkg.FromContext(ctx).Error("Failed to generate P&L", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to generate P&L package")
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, pnl)
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context(), period))
}

// HealthCheck handles GET /health. Degraded components do not fail the
// check: offline fallbacks keep every endpoint answering.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    string(report.Status),
		Model:     report.Model,
		Checks:    checks,
		Documents: report.Documents,
		Chunks:    report.Chunks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage == nil || usage.Calls == 0 {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	w.Header().Set("X-Embedding-Fallbacks", strconv.Itoa(usage.Fallbacks))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrChatNotFound,
		domain.ErrInvalidInput,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
