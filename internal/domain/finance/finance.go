package finance

// Figures is the structured P&L summary aggregated from retrieved text.
// Revenue and Expenses are rounded to whole currency units; NOI is their difference.
type Figures struct {
	Property string
	Revenue  float64
	Expenses float64
	NOI      float64
	Sources  []string // distinct document names, first-seen order
}

// HasValues reports whether any revenue or expense evidence was found.
func (f Figures) HasValues() bool {
	return f.Revenue != 0 || f.Expenses != 0
}

// Target drives one aggregation run. An empty DocumentID means the whole index.
type Target struct {
	Property   string
	DocumentID string
}

// Package is the outcome of one P&L generation run.
type Package struct {
	Figures         Figures
	Summary         string
	CSVPath         string
	XLSXPath        string
	RetrievedChunks int
}
