// internal/state/session_test.go
package state

import (
	"context"
	"testing"

	"github.com/user/chartadvisor/internal/types"
)

func TestSessionStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)
	ctx := context.Background()

	date := types.SessionDate("2026-01-05")
	sess, err := store.GetOrCreate(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != types.StatusEmpty {
		t.Errorf("new session status = %s, want empty", sess.Status)
	}

	// Same date resolves to the same session.
	again, err := store.GetOrCreate(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CreatedAt.Equal(sess.CreatedAt) {
		t.Error("expected same session for same date")
	}

	// Update persists status changes.
	sess.Status = types.StatusCollected
	if err := store.Update(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, date)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusCollected {
		t.Errorf("status = %s, want collected", got.Status)
	}
}

func TestSessionStore_ListOrderedByDate(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)
	ctx := context.Background()

	for _, d := range []string{"2026-01-07", "2026-01-05", "2026-01-06"} {
		if _, err := store.GetOrCreate(ctx, types.SessionDate(d)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	for i, want := range []string{"2026-01-05", "2026-01-06", "2026-01-07"} {
		if string(list[i].Date) != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Date, want)
		}
	}
}

func TestSessionStore_GetUnknownDate(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	if _, err := store.Get(context.Background(), "2026-02-01"); err == nil {
		t.Error("expected error for unknown date")
	}
}
