package usage

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/docusort/internal/domain"
)

// --- Mock ---

type mockBudgetReader struct {
	daily   domain.TokenWindow
	monthly domain.TokenWindow
}

func (m *mockBudgetReader) Daily() domain.TokenWindow   { return m.daily }
func (m *mockBudgetReader) Monthly() domain.TokenWindow { return m.monthly }

var (
	fixedNow   = time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC)
	dayStart   = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	monthStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

func fixedService(br BudgetReader) *Service {
	svc := New(br, true)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		daily:   domain.TokenWindow{Start: dayStart, Used: 3000, Limit: 10000, Remaining: 7000},
		monthly: domain.TokenWindow{Start: monthStart, Used: 50000, Limit: 100000, Remaining: 50000},
	}
	r := fixedService(br).GetReport(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("period = %q", r.Period)
	}
	if r.Limit != 10000 || r.Tokens != 3000 || r.Remaining != 7000 {
		t.Errorf("unexpected numbers %+v", r)
	}
	if r.Exhausted {
		t.Error("expected not exhausted")
	}
	if !r.StartAt.Equal(dayStart) || !r.EndAt.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected window %v - %v", r.StartAt, r.EndAt)
	}
}

func TestGetReport_MonthlyExhausted(t *testing.T) {
	br := &mockBudgetReader{monthly: domain.TokenWindow{Start: monthStart, Used: 150, Limit: 100, Remaining: 0}}
	r := fixedService(br).GetReport(context.Background(), PeriodMonth)

	if !r.Exhausted {
		t.Error("expected exhausted")
	}
	if !r.EndAt.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", r.EndAt)
	}
}

func TestGetReport_Unlimited(t *testing.T) {
	r := fixedService(nil).GetReport(context.Background(), PeriodMonth)

	if r.Limit != 0 || r.Remaining != -1 || r.Exhausted {
		t.Errorf("unexpected unlimited report %+v", r)
	}
	if !r.StartAt.Equal(monthStart) {
		t.Errorf("start = %v, want %v", r.StartAt, monthStart)
	}
	if !r.Online {
		t.Error("expected online flag")
	}
}

func TestGetReport_UnknownPeriodIsMonth(t *testing.T) {
	r := fixedService(nil).GetReport(context.Background(), Period("total"))
	if r.Period != PeriodMonth {
		t.Errorf("period = %q, want month", r.Period)
	}
}

func TestParsePeriod(t *testing.T) {
	if ParsePeriod("day") != PeriodDay || ParsePeriod("") != PeriodMonth || ParsePeriod("year") != PeriodMonth {
		t.Error("unexpected period parsing")
	}
}
