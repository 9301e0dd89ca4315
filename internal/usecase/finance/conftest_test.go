package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docusort/internal/domain/chunk"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	domfin "github.com/kailas-cloud/docusort/internal/domain/finance"
	"github.com/kailas-cloud/docusort/internal/domain/search"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
	"github.com/kailas-cloud/docusort/internal/repository/artifact"
	"github.com/kailas-cloud/docusort/internal/usecase/embedding"
)

func doc(id, name string) document.Document {
	return document.New(document.Metadata{ID: id, Name: name})
}

func hit(d document.Document, order int, text string) result.Result {
	return result.New(chunk.New(chunk.DeriveID(d.ID(), order), d.ID(), text, order, nil), 0.5, d)
}

// --- Mocks ---

type mockEmbedder struct {
	queries []string
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, embedding.Source) {
	m.queries = append(m.queries, q)
	return []float32{1}, embedding.SourceFallback
}

type mockSearcher struct {
	byDoc map[string][]result.Result
	all   []result.Result
	calls []search.Options
}

func (m *mockSearcher) Search(_ []float32, opts search.Options) []result.Result {
	m.calls = append(m.calls, opts)
	if opts.DocumentID != "" {
		return m.byDoc[opts.DocumentID]
	}
	return m.all
}

type mockWriter struct {
	failFor string
	written []domfin.Figures
}

func (m *mockWriter) Write(f domfin.Figures, _ int) (artifact.Files, error) {
	if f.Property == m.failFor {
		return artifact.Files{}, errors.New("disk full")
	}
	m.written = append(m.written, f)
	base := artifact.Slugify(f.Property)
	return artifact.Files{
		CSVPath:  fmt.Sprintf("/tmp/generated/%s.csv", base),
		XLSXPath: fmt.Sprintf("/tmp/generated/%s.xlsx", base),
	}, nil
}
