// internal/state/report_test.go
package state

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

func TestReportStore_SaveGetDelete(t *testing.T) {
	store := NewReportStore(t.TempDir())
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	entry := 2345.5
	stop := 2338.0
	target := 2362.0
	report := &types.Report{
		ID:         types.NewReportID(),
		Date:       date,
		Symbol:     types.SymbolXAUUSD,
		Bias:       types.BiasLong,
		Entry:      &entry,
		Stop:       &stop,
		Target:     &target,
		Confidence: 0.7,
		Rationale:  "Bullish displacement off the weekly FVG.",
		CreatedAt:  time.Now().UTC(),
	}

	if err := store.Save(ctx, report); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != report.ID {
		t.Errorf("ID = %s, want %s", got.ID, report.ID)
	}
	if got.Bias != types.BiasLong || got.Entry == nil || *got.Entry != entry {
		t.Errorf("round trip mangled the report: %+v", got)
	}

	if err := store.Delete(ctx, date); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, date); err == nil {
		t.Error("Get after Delete should fail")
	}

	// Deleting a missing report is not an error.
	if err := store.Delete(ctx, date); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestReportStore_SaveReplaces(t *testing.T) {
	store := NewReportStore(t.TempDir())
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	first := &types.Report{ID: types.NewReportID(), Date: date, Symbol: types.SymbolXAUUSD, Bias: types.BiasNeutral, Confidence: 0.4, CreatedAt: time.Now().UTC()}
	second := &types.Report{ID: types.NewReportID(), Date: date, Symbol: types.SymbolXAUUSD, Bias: types.BiasNeutral, Confidence: 0.6, CreatedAt: time.Now().UTC()}

	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != second.ID {
		t.Error("save should replace the existing report for the date")
	}
}

func TestReportStore_SaveResponse(t *testing.T) {
	dir := t.TempDir()
	store := NewReportStore(dir)
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	raw := []byte(`{"bias":"long"}`)
	if err := store.SaveResponse(ctx, date, raw); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(store.responsePath(date))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(raw) {
		t.Errorf("response = %q, want %q", data, raw)
	}
}
