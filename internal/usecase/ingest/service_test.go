package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain/chunk"
	"github.com/kailas-cloud/docusort/internal/domain/document"
	"github.com/kailas-cloud/docusort/internal/usecase/embedding"
)

// --- Mocks ---

type mockExtractor struct {
	texts map[string]string
}

func (m *mockExtractor) File(path, _ string) string { return m.texts[path] }

type mockEmbedder struct {
	mu    sync.Mutex
	calls [][]string
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) embedding.Outcome {
	m.mu.Lock()
	m.calls = append(m.calls, texts)
	m.mu.Unlock()
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(i + 1), 0}
	}
	return embedding.Outcome{Vectors: vecs, Source: embedding.SourceFallback}
}

type mockIndex struct {
	mu      sync.Mutex
	failFor string
	metas   []document.Metadata
	drafts  map[string][]chunk.Draft
}

func (m *mockIndex) AddDocument(meta document.Metadata, drafts []chunk.Draft) (document.Document, error) {
	if meta.Name == m.failFor {
		return document.Document{}, errors.New("duplicate")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drafts == nil {
		m.drafts = make(map[string][]chunk.Draft)
	}
	m.metas = append(m.metas, meta)
	m.drafts[meta.Name] = drafts
	return document.New(meta), nil
}

func newService(texts map[string]string, idx *mockIndex, window, overlap int) (*Service, *mockEmbedder) {
	emb := &mockEmbedder{}
	return New(&mockExtractor{texts: texts}, emb, idx, window, overlap, zap.NewNop()), emb
}

// --- Tests ---

func TestIngest_ZeroOverlapKeepsChunksDisjoint(t *testing.T) {
	idx := &mockIndex{}
	svc, _ := newService(map[string]string{"/u/a.txt": "one two three four five"}, idx, 2, 0)

	if _, err := svc.Ingest(context.Background(), Upload{Name: "a.txt", Path: "/u/a.txt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drafts := idx.drafts["a.txt"]
	wantTexts := []string{"one two", "three four", "five"}
	if len(drafts) != len(wantTexts) {
		t.Fatalf("expected %d chunks, got %d", len(wantTexts), len(drafts))
	}
	for i, want := range wantTexts {
		if drafts[i].Text != want {
			t.Errorf("chunk %d = %q, want %q", i, drafts[i].Text, want)
		}
	}
}

func TestIngest_NegativeOverlapUsesDefaultBelowWindow(t *testing.T) {
	idx := &mockIndex{}
	svc, _ := newService(map[string]string{"/u/a.txt": "one two three"}, idx, 2, -1)

	if _, err := svc.Ingest(context.Background(), Upload{Name: "a.txt", Path: "/u/a.txt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drafts := idx.drafts["a.txt"]
	if len(drafts) != 2 || drafts[0].Text != "one two" || drafts[1].Text != "two three" {
		t.Errorf("unexpected chunks %+v", drafts)
	}
}

func TestIngest_SegmentsAndIndexes(t *testing.T) {
	idx := &mockIndex{}
	svc, emb := newService(map[string]string{"/u/a.txt": "one two three four five"}, idx, 2, 1)

	doc, err := svc.Ingest(context.Background(), Upload{Name: "a.txt", MIMEType: "text/plain", Size: 23, Path: "/u/a.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name() != "a.txt" || doc.Path() != "/u/a.txt" {
		t.Errorf("unexpected document %q at %q", doc.Name(), doc.Path())
	}
	if doc.Summary() != "one two three four five" {
		t.Errorf("summary = %q", doc.Summary())
	}

	drafts := idx.drafts["a.txt"]
	wantTexts := []string{"one two", "two three", "three four", "four five"}
	if len(drafts) != len(wantTexts) {
		t.Fatalf("expected %d chunks, got %d", len(wantTexts), len(drafts))
	}
	for i, want := range wantTexts {
		if drafts[i].Text != want {
			t.Errorf("chunk %d = %q, want %q", i, drafts[i].Text, want)
		}
		if drafts[i].Vector[0] != float32(i+1) {
			t.Errorf("chunk %d got vector %v", i, drafts[i].Vector)
		}
	}
	if len(emb.calls) != 1 || len(emb.calls[0]) != 4 {
		t.Errorf("expected one batched embed call of 4 texts, got %v", emb.calls)
	}
}

func TestIngest_EmptyTextUsesPlaceholder(t *testing.T) {
	idx := &mockIndex{}
	svc, _ := newService(map[string]string{}, idx, 0, 0)

	doc, err := svc.Ingest(context.Background(), Upload{Name: "scan.pdf", Path: "/u/scan.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FullText() != Placeholder {
		t.Errorf("full text = %q", doc.FullText())
	}
	drafts := idx.drafts["scan.pdf"]
	if len(drafts) != 1 || drafts[0].Text != Placeholder {
		t.Errorf("expected placeholder chunk, got %+v", drafts)
	}
}

func TestIngest_WhitespaceOnlyKeepsRawChunk(t *testing.T) {
	idx := &mockIndex{}
	svc, _ := newService(map[string]string{"/u/blank.txt": " \n\t "}, idx, 0, 0)

	if _, err := svc.Ingest(context.Background(), Upload{Name: "blank.txt", Path: "/u/blank.txt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drafts := idx.drafts["blank.txt"]
	if len(drafts) != 1 || drafts[0].Text != " \n\t " {
		t.Errorf("expected single raw chunk, got %+v", drafts)
	}
}

func TestIngestAll_PreservesOrder(t *testing.T) {
	texts := map[string]string{}
	var uploads []Upload
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		path := "/u/" + name
		texts[path] = strings.Repeat(name+" ", 10)
		uploads = append(uploads, Upload{Name: name, Path: path})
	}
	svc, _ := newService(texts, &mockIndex{}, 0, 0)

	docs, err := svc.IngestAll(context.Background(), uploads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, d := range docs {
		if d.Name() != uploads[i].Name {
			t.Errorf("docs[%d] = %q, want %q", i, d.Name(), uploads[i].Name)
		}
	}
}

func TestIngestAll_Error(t *testing.T) {
	svc, _ := newService(map[string]string{}, &mockIndex{failFor: "bad"}, 0, 0)

	_, err := svc.IngestAll(context.Background(), []Upload{{Name: "good"}, {Name: "bad"}})
	if err == nil || !strings.Contains(err.Error(), "index bad") {
		t.Errorf("expected wrapped index error, got %v", err)
	}
}

func TestStoredPattern(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		in, want string
	}{
		{"Rent Roll (2024).PDF", "1700000000123-rent-roll-2024--*.PDF"},
		{"notes.txt", "1700000000123-notes-*.txt"},
		{"Ünïcode file.docx", "1700000000123--n-code-file-*.docx"},
		{"noext", "1700000000123-noext-*"},
		{"odd.t*t", "1700000000123-odd-*.t-t"},
	}
	for _, tt := range tests {
		if got := StoredPattern(tt.in, now); got != tt.want {
			t.Errorf("StoredPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
