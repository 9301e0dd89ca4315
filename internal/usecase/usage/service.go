// Package usage reports embedding token consumption against the budget.
package usage

import (
	"context"
	"time"

	"github.com/kailas-cloud/docusort/internal/domain"
)

// Period selects the budget window of a report.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// Report describes token usage within one period. Limit is 0 and Remaining
// is -1 when the period is unlimited.
type Report struct {
	Period    Period    `json:"period"`
	StartAt   time.Time `json:"periodStartAt"`
	EndAt     time.Time `json:"periodEndAt"`
	Tokens    int64     `json:"tokens"`
	Limit     int64     `json:"tokensLimit"`
	Remaining int64     `json:"tokensRemaining"`
	Exhausted bool      `json:"isExhausted"`
	Online    bool      `json:"online"`
}

// Service handles usage reporting.
type Service struct {
	br     BudgetReader
	online bool
	now    func() time.Time
}

// New creates a Service. br can be nil (unlimited mode). online reports
// whether a primary embedding provider is configured.
func New(br BudgetReader, online bool) *Service {
	return &Service{br: br, online: online, now: func() time.Time { return time.Now().UTC() }}
}

// ParsePeriod maps a query value to a Period, defaulting to the month.
func ParsePeriod(s string) Period {
	if s == string(PeriodDay) {
		return PeriodDay
	}
	return PeriodMonth
}

// GetReport builds a usage report for the given period. Unknown periods
// report the month.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	if period != PeriodDay {
		period = PeriodMonth
	}

	w := domain.TokenWindow{Start: windowStart(period, s.now()), Remaining: -1}
	if s.br != nil {
		if period == PeriodDay {
			w = s.br.Daily()
		} else {
			w = s.br.Monthly()
		}
	}

	end := w.Start.AddDate(0, 1, 0)
	if period == PeriodDay {
		end = w.Start.AddDate(0, 0, 1)
	}

	return Report{
		Period:    period,
		StartAt:   w.Start,
		EndAt:     end,
		Tokens:    w.Used,
		Limit:     w.Limit,
		Remaining: w.Remaining,
		Exhausted: w.Limit > 0 && w.Remaining <= 0,
		Online:    s.online,
	}
}

func windowStart(period Period, now time.Time) time.Time {
	if period == PeriodDay {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
