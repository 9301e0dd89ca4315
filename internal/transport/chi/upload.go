package chi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
	logpkg "github.com/kailas-cloud/docusort/internal/logger"
	"github.com/kailas-cloud/docusort/internal/usecase/ingest"
)

const (
	uploadField     = "files"
	multipartMemory = 32 << 20
)

// Upload handles POST /api/upload: stores every "files" part in the uploads
// directory and indexes them.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.opts.MaxFiles)*s.opts.MaxUploadBytes + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "No files uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	switch {
	case len(headers) == 0:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "No files uploaded")
		return
	case len(headers) > s.opts.MaxFiles:
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("At most %d files per upload", s.opts.MaxFiles))
		return
	}
	for _, h := range headers {
		if h.Size > s.opts.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("File %s exceeds %d bytes", h.Filename, s.opts.MaxUploadBytes))
			return
		}
	}

	ctx := logpkg.WithFields(r.Context(), zap.Int("files", len(headers)))
	log := logpkg.FromContext(ctx)
	uploads := make([]ingest.Upload, 0, len(headers))
	for _, h := range headers {
		u, err := s.store(h)
		if err != nil {
			log.Error("Failed to store upload", zap.String("name", h.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to process uploaded documents")
			return
		}
		uploads = append(uploads, u)
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	docs, err := s.ingester.IngestAll(ctx, uploads)
	if err != nil {
		log.Error("Upload processing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to process uploaded documents")
		return
	}

	log.Info("Upload indexed", zap.Int("documents", len(docs)))
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, documentsResponse{Documents: publicDocuments(docs)})
}

// store copies one multipart file into the uploads directory.
func (s *Server) store(h *multipart.FileHeader) (ingest.Upload, error) {
	src, err := h.Open()
	if err != nil {
		return ingest.Upload{}, err
	}
	defer src.Close()

	dst, err := os.CreateTemp(s.opts.UploadsDir, ingest.StoredPattern(h.Filename, time.Now()))
	if err != nil {
		return ingest.Upload{}, err
	}
	path := dst.Name()
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ingest.Upload{}, err
	}

	return ingest.Upload{
		Name:     h.Filename,
		MIMEType: h.Header.Get("Content-Type"),
		Size:     n,
		Path:     path,
	}, nil
}
