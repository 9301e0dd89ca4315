package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
)

// BudgetAction defines behavior when the token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the primary call; the gateway then serves fallback vectors.
	BudgetActionReject BudgetAction = "reject"
)

const budgetKeyPrefix = "docusort:budget:"

// BudgetStore persists budget counters. IncrBy must be safe to repeat.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// budgetWindow is one calendar-aligned counter (day or month).
type budgetWindow struct {
	name   string
	layout string
	limit  int64
	used   int64
	start  time.Time
	align  func(time.Time) time.Time
}

func (w *budgetWindow) roll(now time.Time) {
	if start := w.align(now); start.After(w.start) {
		w.used = 0
		w.start = start
	}
}

func (w *budgetWindow) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

// remaining returns -1 for an unlimited window.
func (w *budgetWindow) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

func (w *budgetWindow) snapshot() domain.TokenWindow {
	return domain.TokenWindow{Start: w.start, Used: w.used, Limit: w.limit, Remaining: w.remaining()}
}

// BudgetTracker enforces daily and monthly token caps for one provider.
// Check is in-memory only; Record writes behind to an optional store.
type BudgetTracker struct {
	mu       sync.Mutex
	daily    budgetWindow
	monthly  budgetWindow
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit disables that window.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	return &BudgetTracker{
		daily: budgetWindow{
			name: "daily", layout: "2006-01-02", limit: dailyLimit,
			start: truncateToDay(now), align: truncateToDay,
		},
		monthly: budgetWindow{
			name: "monthly", layout: "2006-01", limit: monthlyLimit,
			start: truncateToMonth(now), align: truncateToMonth,
		},
		action:   action,
		provider: provider,
		logger:   logger,
	}
}

// WithStore attaches persistence and seeds the counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := time.Now().UTC()
	for _, w := range []*budgetWindow{&b.daily, &b.monthly} {
		key := b.key(w, now)
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load token budget", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *BudgetTracker) key(w *budgetWindow, t time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", budgetKeyPrefix, b.provider, w.name, t.Format(w.layout))
}

// Check reports whether a new primary call may go out.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll()
	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record adds consumed tokens to both windows.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.roll()
	b.daily.used += tokens
	b.monthly.used += tokens
	store := b.store
	now := time.Now().UTC()
	keys := []string{b.key(&b.daily, now), b.key(&b.monthly, now)}
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Daily returns a consistent view of today's window.
func (b *BudgetTracker) Daily() domain.TokenWindow {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.daily.snapshot()
}

// Monthly returns a consistent view of this month's window.
func (b *BudgetTracker) Monthly() domain.TokenWindow {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.monthly.snapshot()
}

func (b *BudgetTracker) roll() {
	now := time.Now().UTC()
	b.daily.roll(now)
	b.monthly.roll(now)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
