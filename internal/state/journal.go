// internal/state/journal.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

// JournalEntry records one pipeline event for a session: a state transition,
// an ingestion run, or a rejected submission.
type JournalEntry struct {
	Seq    int64             `json:"seq"`
	Date   types.SessionDate `json:"date"`
	Type   string            `json:"type"`
	At     time.Time         `json:"at"`
	Detail string            `json:"detail,omitempty"`
}

// Journal is a JSONL-backed append-only log, one file per session at
// days/<date>/journal.jsonl. It is the queryable ledger of what ran when.
type Journal struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionDate]*sync.Mutex
}

// NewJournal creates a file-backed Journal rooted at the given directory.
func NewJournal(root string) *Journal {
	return &Journal{
		root:  root,
		locks: make(map[types.SessionDate]*sync.Mutex),
	}
}

// getLock returns the per-date mutex, creating one if it doesn't exist.
func (j *Journal) getLock(date types.SessionDate) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()

	if lock, ok := j.locks[date]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	j.locks[date] = lock
	return lock
}

func (j *Journal) journalPath(date types.SessionDate) string {
	return filepath.Join(j.root, "days", string(date), "journal.jsonl")
}

// count reads the journal file and counts lines. Caller must hold the date lock.
func (j *Journal) count(date types.SessionDate) (int64, error) {
	f, err := os.Open(j.journalPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan journal: %w", err)
	}
	return count, nil
}

// Append adds an entry with an auto-incremented sequence number.
func (j *Journal) Append(_ context.Context, entry *JournalEntry) error {
	lock := j.getLock(entry.Date)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(j.journalPath(entry.Date))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create day dir: %w", err)
	}

	existing, err := j.count(entry.Date)
	if err != nil {
		return err
	}
	entry.Seq = existing + 1
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	f, err := os.OpenFile(j.journalPath(entry.Date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	return nil
}

// Tail returns the last N entries for the date.
func (j *Journal) Tail(_ context.Context, date types.SessionDate, limit int) ([]*JournalEntry, error) {
	lock := j.getLock(date)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(j.journalPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var entries []*JournalEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal journal entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
