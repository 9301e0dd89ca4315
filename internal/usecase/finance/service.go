// Package finance resolves financial intent in prompts and builds P&L
// packages from retrieved evidence.
package finance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	domfin "github.com/kailas-cloud/docusort/internal/domain/finance"
	"github.com/kailas-cloud/docusort/internal/domain/search"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
	"github.com/kailas-cloud/docusort/internal/metrics"
	"github.com/kailas-cloud/docusort/internal/repository/artifact"
	"github.com/kailas-cloud/docusort/internal/usecase/embedding"
)

// DefaultTopK is the number of chunks retrieved per package.
const DefaultTopK = 8

type queryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, embedding.Source)
}

type searcher interface {
	Search(query []float32, opts search.Options) []result.Result
}

type artifactWriter interface {
	Write(f domfin.Figures, retrievedChunks int) (artifact.Files, error)
}

// Service generates P&L packages.
type Service struct {
	embedder  queryEmbedder
	index     searcher
	artifacts artifactWriter
	topK      int
	logger    *zap.Logger
}

// New creates the service. topK <= 0 uses DefaultTopK.
func New(e queryEmbedder, idx searcher, w artifactWriter, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{embedder: e, index: idx, artifacts: w, topK: topK, logger: logger}
}

// GeneratePackage retrieves evidence for property (optionally within one
// document), aggregates it and writes the CSV and XLSX artifacts.
func (s *Service) GeneratePackage(ctx context.Context, property, documentID string) (domfin.Package, error) {
	property = strings.TrimSpace(property)
	if property == "" {
		return domfin.Package{}, fmt.Errorf("property name is required: %w", domain.ErrInvalidInput)
	}

	query, _ := s.embedder.EmbedQuery(ctx, "profit and loss statement for property "+property)
	results := s.index.Search(query, search.Options{TopK: s.topK, DocumentID: documentID})

	figures := Aggregate(property, results)
	files, err := s.artifacts.Write(figures, len(results))
	if err != nil {
		metrics.PnLPackagesTotal.WithLabelValues("error").Inc()
		return domfin.Package{}, fmt.Errorf("write artifacts for %s: %w", property, err)
	}

	status := "figures"
	if !figures.HasValues() {
		status = "empty"
	}
	metrics.PnLPackagesTotal.WithLabelValues(status).Inc()

	return domfin.Package{
		Figures:         figures,
		Summary:         Summary(figures, len(results)),
		CSVPath:         files.CSVPath,
		XLSXPath:        files.XLSXPath,
		RetrievedChunks: len(results),
	}, nil
}

// MaybeGenerate builds packages for a chat turn when the prompt has P&L intent
// and retrieval found something. A failing target is logged and skipped.
func (s *Service) MaybeGenerate(
	ctx context.Context, prompt string, results []result.Result, focused *document.Document,
) []domfin.Package {
	if !IsPnLIntent(prompt) || len(results) == 0 {
		return nil
	}

	var packages []domfin.Package
	for _, t := range ResolveTargets(prompt, results, focused) {
		pkg, err := s.GeneratePackage(ctx, t.Property, t.DocumentID)
		if err != nil {
			s.logger.Error("Automatic P&L generation failed",
				zap.String("property", t.Property),
				zap.String("document_id", t.DocumentID),
				zap.Error(err),
			)
			continue
		}
		packages = append(packages, pkg)
	}
	return packages
}
