// internal/state/artifact_test.go
package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

func writeInboxFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestArtifactStore_PutAndList(t *testing.T) {
	dir := t.TempDir()
	inbox := t.TempDir()
	store := NewArtifactStore(dir)
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	src := writeInboxFile(t, inbox, "XAUUSD_1H_2026-01-05.png")
	art := &types.Artifact{
		ID:         types.NewArtifactID(),
		Symbol:     types.SymbolXAUUSD,
		Timeframe:  types.Timeframe1H,
		Date:       date,
		IngestedAt: time.Now(),
	}

	replaced, err := store.Put(ctx, art, src)
	if err != nil {
		t.Fatal(err)
	}
	if replaced {
		t.Error("first put should not report a replacement")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should be moved out of the inbox")
	}
	if _, err := os.Stat(art.Path); err != nil {
		t.Errorf("stored file missing: %v", err)
	}

	list, err := store.ListByDate(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(list))
	}
}

func TestArtifactStore_UpsertOverwrites(t *testing.T) {
	dir := t.TempDir()
	inbox := t.TempDir()
	store := NewArtifactStore(dir)
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	put := func() bool {
		t.Helper()
		src := writeInboxFile(t, inbox, "EURUSD_4H_2026-01-05.png")
		art := &types.Artifact{
			ID:         types.NewArtifactID(),
			Symbol:     types.SymbolEURUSD,
			Timeframe:  types.Timeframe4H,
			Date:       date,
			IngestedAt: time.Now(),
		}
		replaced, err := store.Put(ctx, art, src)
		if err != nil {
			t.Fatal(err)
		}
		return replaced
	}

	if put() {
		t.Error("first ingest should not replace")
	}
	if !put() {
		t.Error("re-ingest of the same key should replace")
	}

	count, err := store.CountByDate(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("artifact count for the key = %d, want 1", count)
	}
}

func TestArtifactStore_ListOrdering(t *testing.T) {
	dir := t.TempDir()
	inbox := t.TempDir()
	store := NewArtifactStore(dir)
	ctx := context.Background()
	date := types.SessionDate("2026-01-05")

	inputs := []struct {
		symbol types.Symbol
		tf     types.Timeframe
	}{
		{types.SymbolXAUUSD, types.Timeframe5M},
		{types.SymbolEURUSD, types.Timeframe1H},
		{types.SymbolXAUUSD, types.Timeframe1W},
		{types.SymbolEURUSD, types.Timeframe1D},
	}
	for i, input := range inputs {
		src := writeInboxFile(t, inbox, string(input.symbol)+string(input.tf)+".png")
		art := &types.Artifact{
			ID:         types.NewArtifactID(),
			Symbol:     input.symbol,
			Timeframe:  input.tf,
			Date:       date,
			IngestedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if _, err := store.Put(ctx, art, src); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListByDate(ctx, date)
	if err != nil {
		t.Fatal(err)
	}

	// Symbol first, then widest timeframe first.
	want := []string{"EURUSD/1D", "EURUSD/1H", "XAUUSD/1W", "XAUUSD/5M"}
	if len(list) != len(want) {
		t.Fatalf("expected %d artifacts, got %d", len(want), len(list))
	}
	for i, art := range list {
		got := string(art.Symbol) + "/" + string(art.Timeframe)
		if got != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, got, want[i])
		}
	}
}
