package usage

import "github.com/kailas-cloud/docusort/internal/domain"

// BudgetReader exposes the embedding token windows.
type BudgetReader interface {
	Daily() domain.TokenWindow
	Monthly() domain.TokenWindow
}
