package finance

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/docusort/internal/domain/document"
	domfin "github.com/kailas-cloud/docusort/internal/domain/finance"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
)

const (
	// MaxTargets caps fan-out when the prompt asks for every property.
	MaxTargets = 5

	portfolioTarget   = "Workspace Portfolio"
	documentSetTarget = "Document Set"
)

var (
	pnlIntent = regexp.MustCompile(`(?i)(p&l|p\s*&\s*l|profit\s*(and|&)\s*loss|income statement|net operating income|noi)`)
	breadth   = regexp.MustCompile(`(?i)(each property|every property|all properties|portfolio)`)
)

// IsPnLIntent reports whether prompt asks for profit-and-loss output.
// Matching is substring-based, so "noise" also qualifies.
func IsPnLIntent(prompt string) bool {
	return pnlIntent.MatchString(prompt)
}

// ResolveTargets picks the properties to build P&L packages for.
//
// The focused document comes first, then each distinct result document in
// result order. With no candidates a single whole-index target is returned.
// Prompts asking about every property get up to MaxTargets, others get one.
func ResolveTargets(prompt string, results []result.Result, focused *document.Document) []domfin.Target {
	var targets []domfin.Target
	seen := make(map[string]bool)

	add := func(d document.Document) {
		if seen[d.ID()] {
			return
		}
		seen[d.ID()] = true
		targets = append(targets, domfin.Target{Property: d.Name(), DocumentID: d.ID()})
	}

	if focused != nil {
		add(*focused)
	}
	for _, r := range results {
		add(r.Document())
	}

	if len(targets) == 0 {
		lower := strings.ToLower(prompt)
		name := documentSetTarget
		if strings.Contains(lower, "portfolio") || strings.Contains(lower, "all") {
			name = portfolioTarget
		}
		targets = append(targets, domfin.Target{Property: name})
	}

	limit := 1
	if breadth.MatchString(prompt) {
		limit = MaxTargets
	}
	if len(targets) > limit {
		targets = targets[:limit]
	}
	return targets
}
