// Package tree organizes uploaded documents into a folder tree, either by
// file type or by asking the chat model for a topical layout.
package tree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain/document"
	domtree "github.com/kailas-cloud/docusort/internal/domain/tree"
	"github.com/kailas-cloud/docusort/internal/metrics"
)

const (
	otherCategory    = "Other"
	unsortedCategory = "Unsorted"

	systemPrompt = "You output strictly valid JSON for folder trees."
	userPrompt   = "Organize the following files into a logical folder tree for knowledge workers. " +
		"Respond ONLY with JSON matching the schema described.\n" +
		`Schema: {"name": string, "type": "folder" | "file", "file_id": string (files only), ` +
		`"children": [node] (folders only)}. Reference every file by its id.` + "\n" +
		"Files:\n"
)

var categories = map[string]string{
	".pdf":  "PDFs",
	".docx": "Word Documents",
	".txt":  "Text Files",
}

// BuildMetadataTree groups docs into one folder per file type, folders sorted
// by name and files kept in listing order.
func BuildMetadataTree(docs []document.Document) domtree.Node {
	buckets := make(map[string][]domtree.Node)
	for _, d := range docs {
		category, ok := categories[strings.ToLower(filepath.Ext(d.Name()))]
		if !ok {
			category = otherCategory
		}
		buckets[category] = append(buckets[category], domtree.File(d.Name(), d.ID()))
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	root := domtree.Folder(domtree.RootName)
	for _, name := range names {
		root.Children = append(root.Children, domtree.Folder(name, buckets[name]...))
	}
	return root
}

// Service builds and remembers the latest folder tree.
type Service struct {
	docs      DocumentLister
	completer Completer
	logger    *zap.Logger

	mu     sync.RWMutex
	latest *domtree.Node
}

// New creates the service. completer can be nil; Sort then groups by type.
func New(docs DocumentLister, completer Completer, logger *zap.Logger) *Service {
	return &Service{docs: docs, completer: completer, logger: logger}
}

// Sort organizes the current documents and stores the result as the latest
// tree. It never fails: a missing, failing or unusable model reply yields the
// metadata tree.
func (s *Service) Sort(ctx context.Context) domtree.Node {
	docs := s.docs.ListDocuments()

	root, source := BuildMetadataTree(docs), "metadata"
	if len(docs) > 0 && s.completer != nil {
		proposed, err := s.propose(ctx, docs)
		if err == nil {
			root, source = proposed, "model"
		} else {
			s.logger.Warn("Model tree unusable, grouping by file type", zap.Error(err))
		}
	}

	metrics.TreeBuildsTotal.WithLabelValues(source).Inc()
	s.logger.Info("Folder tree built",
		zap.String("source", source),
		zap.Int("documents", len(docs)),
		zap.Int("folders", len(root.Children)),
	)

	s.mu.Lock()
	s.latest = &root
	s.mu.Unlock()
	return root
}

// Latest returns the last sorted tree, or the metadata tree if Sort has not run.
func (s *Service) Latest(_ context.Context) domtree.Node {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return *latest
	}
	return BuildMetadataTree(s.docs.ListDocuments())
}

func (s *Service) propose(ctx context.Context, docs []document.Document) (domtree.Node, error) {
	var b strings.Builder
	b.WriteString(userPrompt)
	for i, d := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s (size: %d bytes, id: %s)", d.Name(), d.Size(), d.ID())
	}

	reply, err := s.completer.CompleteJSON(ctx, systemPrompt, b.String())
	if err != nil {
		return domtree.Node{}, fmt.Errorf("complete: %w", err)
	}

	var root domtree.Node
	if err := json.Unmarshal([]byte(reply), &root); err != nil {
		return domtree.Node{}, fmt.Errorf("decode tree: %w", err)
	}
	root.Name = domtree.RootName
	if root.Type == "" {
		root.Type = domtree.KindFolder
	}
	if err := root.Validate(); err != nil {
		return domtree.Node{}, fmt.Errorf("invalid tree: %w", err)
	}
	if root.Type != domtree.KindFolder {
		return domtree.Node{}, fmt.Errorf("invalid tree: root is a %s", root.Type)
	}

	return reconcile(root, docs)
}

// reconcile drops files the model invented and files every document it left
// out under "Unsorted". A tree referencing no real document is rejected.
func reconcile(root domtree.Node, docs []document.Document) (domtree.Node, error) {
	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.ID()] = true
	}

	root = prune(root, known)
	placed := make(map[string]bool)
	for _, id := range root.Files() {
		placed[id] = true
	}
	if len(placed) == 0 {
		return domtree.Node{}, errors.New("invalid tree: no known documents")
	}

	var missing []domtree.Node
	for _, d := range docs {
		if !placed[d.ID()] {
			missing = append(missing, domtree.File(d.Name(), d.ID()))
		}
	}
	if len(missing) > 0 {
		root.Children = append(root.Children, domtree.Folder(unsortedCategory, missing...))
	}
	return root, nil
}

// prune removes file nodes whose id is not known or was already placed.
func prune(n domtree.Node, known map[string]bool) domtree.Node {
	seen := make(map[string]bool)
	var walk func(domtree.Node) domtree.Node
	walk = func(folder domtree.Node) domtree.Node {
		var kept []domtree.Node
		for _, c := range folder.Children {
			if c.Type == domtree.KindFile {
				if !known[c.FileID] || seen[c.FileID] {
					continue
				}
				seen[c.FileID] = true
				kept = append(kept, c)
				continue
			}
			kept = append(kept, walk(c))
		}
		folder.Children = kept
		return folder
	}
	return walk(n)
}
