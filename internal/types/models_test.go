// internal/types/models_test.go
package types

import (
	"testing"
	"time"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in      string
		want    Timeframe
		wantErr bool
	}{
		{"1W", Timeframe1W, false},
		{"1d", Timeframe1D, false},
		{"4H", Timeframe4H, false},
		{"15m", Timeframe15M, false},
		{"5M", Timeframe5M, false},
		{"2H", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTimeframe(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeframe(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeframe(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeframe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimeframeRankOrdering(t *testing.T) {
	// Widest first: 1W > 1D > 4H > 1H > 15M > 5M.
	if Timeframe1W.Rank() >= Timeframe1D.Rank() {
		t.Error("1W should rank before 1D")
	}
	if Timeframe1H.Rank() >= Timeframe15M.Rank() {
		t.Error("1H should rank before 15M")
	}
	if Timeframe("3H").Rank() != len(Timeframes()) {
		t.Error("unknown timeframe should rank last")
	}
}

func TestParseSymbol(t *testing.T) {
	allowed := DefaultSymbols()

	sym, err := ParseSymbol("xauusd", allowed)
	if err != nil {
		t.Fatal(err)
	}
	if sym != SymbolXAUUSD {
		t.Errorf("expected XAUUSD, got %s", sym)
	}

	if _, err := ParseSymbol("GBPUSD", allowed); err == nil {
		t.Error("expected error for symbol outside the universe")
	}
}

func TestDateOf(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	// 01:30 UTC on Jan 2 is still Jan 1 in New York.
	at := time.Date(2026, 1, 2, 1, 30, 0, 0, time.UTC)
	if got := DateOf(at, ny); got != SessionDate("2026-01-01") {
		t.Errorf("DateOf = %s, want 2026-01-01", got)
	}
	if got := DateOf(at, time.UTC); got != SessionDate("2026-01-02") {
		t.Errorf("DateOf = %s, want 2026-01-02", got)
	}
}

func TestStatusAtLeast(t *testing.T) {
	if !StatusPrompted.AtLeast(StatusCollected) {
		t.Error("prompted should satisfy collected")
	}
	if StatusEmpty.AtLeast(StatusCollected) {
		t.Error("empty should not satisfy collected")
	}
	if !StatusAnalyzed.AtLeast(StatusAnalyzed) {
		t.Error("status should satisfy itself")
	}
}

func TestNewsItemDedupKey(t *testing.T) {
	at := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	a := &NewsItem{Source: "fed_official", PublishedAt: at, Title: "one"}
	b := &NewsItem{Source: "fed_official", PublishedAt: at, Title: "two"}
	c := &NewsItem{Source: "reuters", PublishedAt: at, Title: "one"}

	if a.DedupKey() != b.DedupKey() {
		t.Error("same source+timestamp should collide regardless of title")
	}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different sources should not collide")
	}
}
