// internal/state/calendar_test.go
package state

import (
	"context"
	"testing"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

func calEvent(at time.Time, currency string, impact types.Impact, title string) types.CalendarEvent {
	return types.CalendarEvent{At: at, Currency: currency, Impact: impact, Title: title}
}

func TestCalendarStore_ReplaceRangeScoped(t *testing.T) {
	store := NewCalendarStore(t.TempDir())
	ctx := context.Background()

	jan := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)

	seed := []types.CalendarEvent{
		calEvent(jan, "USD", types.ImpactHigh, "CPI y/y"),
		calEvent(feb, "EUR", types.ImpactMedium, "ECB Press Conference"),
	}
	if err := store.ReplaceRange(ctx, jan.AddDate(0, 0, -14), feb.AddDate(0, 0, 14), seed); err != nil {
		t.Fatal(err)
	}

	// Replace only January. The February event must survive.
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	fresh := []types.CalendarEvent{
		calEvent(jan.Add(time.Hour), "USD", types.ImpactHigh, "FOMC Statement"),
	}
	if err := store.ReplaceRange(ctx, from, to, fresh); err != nil {
		t.Fatal(err)
	}

	all, err := store.EventsBetween(ctx, from, feb.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events after scoped replace, got %d", len(all))
	}
	if all[0].Title != "FOMC Statement" {
		t.Errorf("january event = %q, want FOMC Statement", all[0].Title)
	}
	if all[1].Title != "ECB Press Conference" {
		t.Errorf("february event = %q, want ECB Press Conference", all[1].Title)
	}
}

func TestCalendarStore_ReplaceRangeDropsOutOfRangeInput(t *testing.T) {
	store := NewCalendarStore(t.TempDir())
	ctx := context.Background()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	events := []types.CalendarEvent{
		calEvent(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), "USD", types.ImpactHigh, "NFP"),
		calEvent(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), "USD", types.ImpactHigh, "Out of range"),
	}
	if err := store.ReplaceRange(ctx, from, to, events); err != nil {
		t.Fatal(err)
	}

	all, err := store.EventsBetween(ctx, from, to.AddDate(0, 6, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Title != "NFP" {
		t.Errorf("only the in-range event should be stored, got %v", all)
	}
}

func TestCalendarStore_EventsBetweenSorted(t *testing.T) {
	store := NewCalendarStore(t.TempDir())
	ctx := context.Background()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	events := []types.CalendarEvent{
		calEvent(day.Add(14*time.Hour), "USD", types.ImpactLow, "Crude Oil Inventories"),
		calEvent(day.Add(9*time.Hour), "USD", types.ImpactHigh, "CPI y/y"),
		calEvent(day.Add(9*time.Hour), "EUR", types.ImpactMedium, "German Factory Orders"),
	}
	if err := store.ReplaceRange(ctx, day, day.AddDate(0, 0, 1), events); err != nil {
		t.Fatal(err)
	}

	got, err := store.EventsBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"German Factory Orders", "CPI y/y", "Crude Oil Inventories"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, event := range got {
		if event.Title != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, event.Title, want[i])
		}
	}
}
