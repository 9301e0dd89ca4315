package chat

import (
	"strings"
	"testing"
	"time"
)

func TestSummarize_Preview(t *testing.T) {
	long := strings.Repeat("a", 200)
	s := Session{
		ID:        "c1",
		Title:     "t",
		UpdatedAt: time.Unix(10, 0),
		Messages: []Message{
			{Content: "first"},
			{Content: long},
		},
	}

	sum := s.Summarize()
	if sum.ID != "c1" || sum.Title != "t" {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(sum.LastMessagePreview) != 120 {
		t.Errorf("preview length = %d, want 120", len(sum.LastMessagePreview))
	}
}

func TestSummarize_NoMessages(t *testing.T) {
	s := Session{ID: "c1"}
	if got := s.Summarize().LastMessagePreview; got != "" {
		t.Errorf("expected empty preview, got %q", got)
	}
}

func TestExtend(t *testing.T) {
	now := time.Unix(100, 0)
	last := time.Unix(50, 0)
	base := Session{ID: "c1", Title: "Rent", Messages: []Message{{ID: "m1"}}}

	got := base.Extend([]Message{{ID: "m2"}, {ID: "m3", CreatedAt: last}}, "ignored", now)
	if got.Title != "Rent" {
		t.Errorf("title = %q, want existing title kept", got.Title)
	}
	if !got.UpdatedAt.Equal(last) {
		t.Errorf("updatedAt = %v, want last message time", got.UpdatedAt)
	}
	if len(got.Messages) != 3 || len(base.Messages) != 1 {
		t.Errorf("expected copy with 3 messages, base untouched; got %d/%d", len(got.Messages), len(base.Messages))
	}
}

func TestExtend_Titles(t *testing.T) {
	now := time.Unix(100, 0)

	if got := (Session{}).Extend(nil, "Hint", now); got.Title != "Hint" || !got.UpdatedAt.Equal(now) {
		t.Errorf("got title %q at %v", got.Title, got.UpdatedAt)
	}
	if got := (Session{}).Extend(nil, "", now); got.Title != DefaultTitle {
		t.Errorf("got title %q, want %q", got.Title, DefaultTitle)
	}
}
