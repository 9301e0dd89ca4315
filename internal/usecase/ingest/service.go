// Package ingest turns uploaded files into indexed documents.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docusort/internal/domain/chunk"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	"github.com/kailas-cloud/docusort/internal/metrics"
	"github.com/kailas-cloud/docusort/internal/segment"
	"github.com/kailas-cloud/docusort/internal/usecase/embedding"
)

// Placeholder is indexed for files without extractable text.
const Placeholder = "No extractable text found in document."

// MaxParallel bounds concurrent ingestion within one upload.
const MaxParallel = 4

// Upload describes a file already stored on disk.
type Upload struct {
	Name     string // original client file name
	MIMEType string
	Size     int64
	Path     string
}

type extractor interface {
	File(path, mimeType string) string
}

type embedder interface {
	Embed(ctx context.Context, texts []string) embedding.Outcome
}

type indexer interface {
	AddDocument(meta document.Metadata, drafts []chunk.Draft) (document.Document, error)
}

// Service runs the write path: extract, segment, embed, index.
type Service struct {
	extractor extractor
	embedder  embedder
	index     indexer
	segOpts   []segment.Option
	window    int
	logger    *zap.Logger
}

// New creates the service. window <= 0 uses the segmenter default; overlap 0
// means adjacent chunks share no tokens and a negative overlap uses the
// segmenter default, capped below the window.
func New(x extractor, e embedder, idx indexer, window, overlap int, logger *zap.Logger) *Service {
	if window <= 0 {
		window = segment.DefaultWindow
	}
	if overlap < 0 {
		overlap = min(segment.DefaultOverlap, window-1)
	}
	opts := []segment.Option{segment.WithWindow(window), segment.WithOverlap(overlap)}
	return &Service{extractor: x, embedder: e, index: idx, segOpts: opts, window: window, logger: logger}
}

// Ingest indexes a single upload.
func (s *Service) Ingest(ctx context.Context, u Upload) (document.Document, error) {
	text := s.extractor.File(u.Path, u.MIMEType)
	label := "extracted"
	if text == "" {
		text = Placeholder
		label = "placeholder"
	}

	texts := s.chunkTexts(text)
	out := s.embedder.Embed(ctx, texts)

	drafts := make([]chunk.Draft, len(texts))
	for i, t := range texts {
		drafts[i] = chunk.Draft{Text: t, Vector: out.Vectors[i]}
	}

	doc, err := s.index.AddDocument(document.Metadata{
		Name:     u.Name,
		MIMEType: u.MIMEType,
		Size:     u.Size,
		Summary:  segment.Summarize(text, segment.DefaultSummaryLength),
		FullText: text,
		Path:     u.Path,
	}, drafts)
	if err != nil {
		return document.Document{}, fmt.Errorf("index %s: %w", u.Name, err)
	}

	metrics.IngestedDocumentsTotal.WithLabelValues(label).Inc()
	s.logger.Info("Document indexed",
		zap.String("document_id", doc.ID()),
		zap.String("name", u.Name),
		zap.Int("chunks", len(drafts)),
		zap.String("embedding_source", string(out.Source)),
	)
	return doc, nil
}

// IngestAll indexes uploads concurrently and returns documents in upload order.
// The first failure cancels the remaining work.
func (s *Service) IngestAll(ctx context.Context, uploads []Upload) ([]document.Document, error) {
	docs := make([]document.Document, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallel)

	for i, u := range uploads {
		g.Go(func() error {
			doc, err := s.Ingest(gctx, u)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// chunkTexts segments text; when nothing survives segmentation the leading
// window of raw characters becomes the only chunk.
func (s *Service) chunkTexts(text string) []string {
	segs := segment.Split(text, s.segOpts...)
	if len(segs) == 0 {
		r := []rune(text)
		return []string{string(r[:min(len(r), s.window)])}
	}
	texts := make([]string, len(segs))
	for i, seg := range segs {
		texts[i] = seg.Text
	}
	return texts
}

var nonAlnum = regexp.MustCompile(`(?i)[^a-z0-9]+`)

// StoredPattern is the os.CreateTemp pattern for an upload:
// "<unix ms>-<slug>-*<ext>". The random part keeps same-named files in one
// request (or one millisecond) from overwriting each other.
func StoredPattern(original string, now time.Time) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	slug := strings.ToLower(nonAlnum.ReplaceAllString(base, "-"))
	ext = strings.ReplaceAll(ext, "*", "-")
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + slug + "-*" + ext
}
