// internal/prompt/assembler_test.go
package prompt

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/chartadvisor/internal/state"
	"github.com/user/chartadvisor/internal/types"
)

func testAssembler(t *testing.T) (*Assembler, *state.ArtifactStore, *state.CalendarStore, *state.NewsStore, string) {
	t.Helper()
	root := t.TempDir()
	artifacts := state.NewArtifactStore(root)
	cal := state.NewCalendarStore(root)
	news := state.NewNewsStore(root)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := Options{
		Symbols:      types.DefaultSymbols(),
		Currencies:   []string{"USD", "EUR"},
		DangerWindow: 30 * time.Minute,
		NewsLookback: 48 * time.Hour,
		Location:     time.UTC,
	}
	asm, err := NewAssembler(root, artifacts, cal, news, opts, logger)
	if err != nil {
		t.Fatal(err)
	}
	return asm, artifacts, cal, news, root
}

func seedArtifact(t *testing.T, store *state.ArtifactStore, symbol types.Symbol, tf types.Timeframe, date types.SessionDate) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "chart.png")
	if err := os.WriteFile(src, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	art := &types.Artifact{
		ID:         types.NewArtifactID(),
		Symbol:     symbol,
		Timeframe:  tf,
		Date:       date,
		IngestedAt: time.Now(),
	}
	if _, err := store.Put(context.Background(), art, src); err != nil {
		t.Fatal(err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	asm, artifacts, cal, news, _ := testAssembler(t)
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	seedArtifact(t, artifacts, types.SymbolXAUUSD, types.Timeframe1H, date)
	seedArtifact(t, artifacts, types.SymbolEURUSD, types.Timeframe1D, date)

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	err := cal.ReplaceRange(ctx, day, day.AddDate(0, 0, 1), []types.CalendarEvent{
		{At: day.Add(9 * time.Hour), Currency: "USD", Impact: types.ImpactHigh, Title: "CPI y/y", Forecast: "3.0%", Previous: "2.9%"},
		{At: day.Add(14 * time.Hour), Currency: "EUR", Impact: types.ImpactLow, Title: "Italian Trade Balance"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = news.Add(ctx, []types.NewsItem{
		{Source: "Federal Reserve (FOMC)", PublishedAt: day.Add(-12 * time.Hour), Title: "FOMC statement", URL: "https://example.com/a", Stance: "hawkish"},
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := asm.Build(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	second, err := asm.Build(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Markdown, second.Markdown) {
		t.Error("assembly over unchanged caches should be byte-identical")
	}

	written, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, first.Markdown) {
		t.Error("written prompt should match the returned markdown")
	}
}

func TestBuildContent(t *testing.T) {
	asm, artifacts, cal, news, _ := testAssembler(t)
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	seedArtifact(t, artifacts, types.SymbolXAUUSD, types.Timeframe1H, date)

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	err := cal.ReplaceRange(ctx, day, day.AddDate(0, 0, 1), []types.CalendarEvent{
		{At: day.Add(9 * time.Hour), Currency: "USD", Impact: types.ImpactHigh, Title: "CPI y/y", Forecast: "3.0%", Previous: "2.9%"},
		{At: day.Add(9*time.Hour + 10*time.Minute), Currency: "USD", Impact: types.ImpactHigh, Title: "Core CPI m/m"},
		{At: day.Add(14 * time.Hour), Currency: "EUR", Impact: types.ImpactLow, Title: "Italian Trade Balance"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = news.Add(ctx, []types.NewsItem{
		{Source: "Federal Reserve (Speech)", PublishedAt: day.Add(-6 * time.Hour), Title: "Chair remarks", URL: "https://example.com/b", Stance: "dovish"},
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := asm.Build(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	md := string(result.Markdown)

	for _, want := range []string{
		"# Daily Analysis Request - 2026-01-05",
		"### XAUUSD",
		"### EURUSD",
		"- 1H: `",
		"- 1W: **Missing**",
		"| 09:00 | USD | CPI y/y | 3.0% | 2.9% |",
		"| 14:00 | EUR | low | Italian Trade Balance |",
		"08:30 - 09:40 UTC: CPI y/y; Core CPI m/m",
		"🟢 [Chair remarks](https://example.com/b) - Federal Reserve (Speech)",
		"## Required Output Format",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Both CPI events share one merged danger window.
	if len(result.DangerWindows) != 1 {
		t.Errorf("danger windows = %d, want 1", len(result.DangerWindows))
	}
	// Token counting is off unless enabled.
	if result.TokenCount != 0 {
		t.Errorf("token count = %d, want 0 without a tokenizer", result.TokenCount)
	}
}

func TestBuildEmptyCaches(t *testing.T) {
	asm, _, _, _, _ := testAssembler(t)

	result, err := asm.Build(context.Background(), "2026-01-05")
	if err != nil {
		t.Fatal(err)
	}
	md := string(result.Markdown)

	for _, want := range []string{
		"No USD/EUR events scheduled for today.",
		"No recent Fed-related news found.",
		"**No screenshots found**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
