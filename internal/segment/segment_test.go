package segment

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplit_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t \r\n"} {
		if got := Split(in); got != nil {
			t.Errorf("Split(%q) = %v, want nil", in, got)
		}
	}
}

func TestSplit_ShorterThanWindow(t *testing.T) {
	got := Split("  Total   Revenue:\n$120,000\t\tfor 2023  ")
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if got[0].Text != "Total Revenue: $120,000 for 2023" {
		t.Errorf("unexpected text: %q", got[0].Text)
	}
	if got[0].Index != 0 {
		t.Errorf("Index = %d, want 0", got[0].Index)
	}
}

func TestSplit_Count(t *testing.T) {
	tests := []struct {
		tokens, window, overlap, want int
	}{
		{10, 4, 2, 4},
		{11, 4, 2, 5},
		{4, 4, 2, 1},
		{5, 4, 2, 2},
		{3, 4, 2, 1},
		{1000, 800, 200, 2},
		{1400, 800, 200, 2},
		{1401, 800, 200, 3},
		{9, 3, 0, 3},
	}
	for _, tc := range tests {
		name := fmt.Sprintf("n=%d/w=%d/o=%d", tc.tokens, tc.window, tc.overlap)
		t.Run(name, func(t *testing.T) {
			got := Split(words(tc.tokens), WithWindow(tc.window), WithOverlap(tc.overlap))
			if len(got) != tc.want {
				t.Errorf("got %d segments, want %d", len(got), tc.want)
			}
		})
	}
}

func TestSplit_CoverageAndOverlap(t *testing.T) {
	const n, window, overlap = 23, 5, 2
	got := Split(words(n), WithWindow(window), WithOverlap(overlap))

	first := strings.Fields(got[0].Text)
	if first[0] != "w0" {
		t.Errorf("first token = %q, want w0", first[0])
	}
	last := strings.Fields(got[len(got)-1].Text)
	if last[len(last)-1] != fmt.Sprintf("w%d", n-1) {
		t.Errorf("last token = %q, want w%d", last[len(last)-1], n-1)
	}

	for i := 1; i < len(got); i++ {
		prev := strings.Fields(got[i-1].Text)
		cur := strings.Fields(got[i].Text)
		shared := prev[len(prev)-overlap:]
		for j, tok := range shared {
			if cur[j] != tok {
				t.Fatalf("segment %d does not overlap previous: %v vs %v", i, shared, cur[:overlap])
			}
		}
	}
}

func TestSplit_DenseIndex(t *testing.T) {
	got := Split(words(50), WithWindow(10), WithOverlap(3))
	for i, s := range got {
		if s.Index != i {
			t.Errorf("segment %d has Index %d", i, s.Index)
		}
	}
}

func TestSplit_FinalPartialWindowStops(t *testing.T) {
	got := Split(words(6), WithWindow(4), WithOverlap(1))
	// starts at 0 and 3; the window at 3 reaches the end.
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[1].Text != "w3 w4 w5" {
		t.Errorf("unexpected final segment: %q", got[1].Text)
	}
}

func TestSplit_InvalidOptionsIgnored(t *testing.T) {
	got := Split(words(10), WithWindow(0), WithOverlap(-1))
	if len(got) != 1 {
		t.Errorf("expected defaults to apply, got %d segments", len(got))
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize("  a   b  ", 0); got != "a b" {
		t.Errorf("Summarize short = %q", got)
	}
	long := strings.Repeat("x", 300)
	got := Summarize(long, 0)
	if got != strings.Repeat("x", DefaultSummaryLength)+"..." {
		t.Errorf("Summarize long has length %d", len(got))
	}
	if got := Summarize("héllo wörld", 5); got != "héllo..." {
		t.Errorf("Summarize runes = %q", got)
	}
}
