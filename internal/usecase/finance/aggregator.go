package finance

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	domfin "github.com/kailas-cloud/docusort/internal/domain/finance"
	"github.com/kailas-cloud/docusort/internal/domain/search/result"
)

var (
	revenueKeywords = regexp.MustCompile(`(?i)(revenue|rent|income|collections|sales|gross)`)
	expenseKeywords = regexp.MustCompile(`(?i)(expense|cost|tax|insurance|maintenance|capex|debt service|interest)`)

	lineBreaks    = regexp.MustCompile(`\n|\r|\.|;`)
	currencyToken = regexp.MustCompile(`[-+]?\$?[\d,]+(?:\.\d{1,2})?`)
	nonNumeric    = regexp.MustCompile(`[^\d.-]`)
)

// Aggregate scans retrieved chunks for currency amounts and totals them.
//
// Text is split into lines on newlines, periods and semicolons. Every amount
// on a line counts toward revenue when the line mentions a revenue keyword,
// otherwise toward expenses when it mentions an expense keyword. Amounts are
// taken as absolute values. Both totals are rounded before NOI is derived.
func Aggregate(property string, results []result.Result) domfin.Figures {
	var revenue, expenses float64
	var sources []string
	seen := make(map[string]bool)

	for _, r := range results {
		if name := r.Document().Name(); !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}

		for _, line := range lineBreaks.Split(r.Chunk().Text(), -1) {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			isRevenue := revenueKeywords.MatchString(line)
			isExpense := !isRevenue && expenseKeywords.MatchString(line)
			if !isRevenue && !isExpense {
				continue
			}

			for _, token := range currencyToken.FindAllString(line, -1) {
				value, ok := parseAmount(token)
				if !ok {
					continue
				}
				if isRevenue {
					revenue += math.Abs(value)
				} else {
					expenses += math.Abs(value)
				}
			}
		}
	}

	rev := math.Round(revenue)
	exp := math.Round(expenses)
	return domfin.Figures{
		Property: property,
		Revenue:  rev,
		Expenses: exp,
		NOI:      rev - exp,
		Sources:  sources,
	}
}

// parseAmount strips everything but digits, dots and minus signs. Zero and
// unparsable tokens are rejected.
func parseAmount(token string) (float64, bool) {
	v, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(token, ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return 0, false
	}
	return v, true
}

// Summary is the one-line description attached to a P&L package.
func Summary(f domfin.Figures, retrievedChunks int) string {
	if !f.HasValues() {
		return fmt.Sprintf("No structured financial values detected for %s. Generated templated outputs for completion.", f.Property)
	}
	return fmt.Sprintf("Net operating income for %s is $%s across %d retrieved chunk(s).",
		f.Property, humanize.Comma(int64(f.NOI)), retrievedChunks)
}
