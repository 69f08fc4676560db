// internal/state/session.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

// SessionStore is a JSON-file-backed store of trading sessions, keyed by
// date. The index lives at sessions.json; per-date material (prompt, report,
// journal) lives under days/<date>/.
type SessionStore struct {
	root string
	mu   sync.RWMutex
}

// NewSessionStore creates a file-backed SessionStore rooted at the given directory.
func NewSessionStore(root string) *SessionStore {
	return &SessionStore{root: root}
}

func (s *SessionStore) indexPath() string {
	return filepath.Join(s.root, "sessions.json")
}

// DayDir returns the per-date directory for prompt, report and journal files.
func (s *SessionStore) DayDir(date types.SessionDate) string {
	return filepath.Join(s.root, "days", string(date))
}

// loadIndex reads sessions.json into a map keyed by date.
func (s *SessionStore) loadIndex() (map[types.SessionDate]*types.Session, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[types.SessionDate]*types.Session), nil
		}
		return nil, fmt.Errorf("read session index: %w", err)
	}

	var sessions []*types.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal session index: %w", err)
	}

	index := make(map[types.SessionDate]*types.Session, len(sessions))
	for _, sess := range sessions {
		index[sess.Date] = sess
	}
	return index, nil
}

// saveIndex writes the index as a date-sorted slice, atomically.
func (s *SessionStore) saveIndex(index map[types.SessionDate]*types.Session) error {
	sessions := make([]*types.Session, 0, len(index))
	for _, sess := range index {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date < sessions[j].Date
	})

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session index: %w", err)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := os.Rename(tmp, s.indexPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp index: %w", err)
	}
	return nil
}

// GetOrCreate returns the session for the date, creating an empty one if needed.
func (s *SessionStore) GetOrCreate(_ context.Context, date types.SessionDate) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	if existing, ok := index[date]; ok {
		return existing, nil
	}

	now := time.Now()
	session := &types.Session{
		Date:      date,
		Status:    types.StatusEmpty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	index[date] = session

	if err := s.saveIndex(index); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.DayDir(date), 0o755); err != nil {
		return nil, fmt.Errorf("create day dir: %w", err)
	}
	return session, nil
}

// Get returns the session for the date.
func (s *SessionStore) Get(_ context.Context, date types.SessionDate) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	sess, ok := index[date]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, date)
	}
	return sess, nil
}

// List returns all sessions ordered by date.
func (s *SessionStore) List(_ context.Context) ([]*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	sessions := make([]*types.Session, 0, len(index))
	for _, sess := range index {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date < sessions[j].Date
	})
	return sessions, nil
}

// Update persists changes to the session, setting UpdatedAt to now.
func (s *SessionStore) Update(_ context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	if _, ok := index[session.Date]; !ok {
		return fmt.Errorf("%w: %s", types.ErrSessionNotFound, session.Date)
	}

	session.UpdatedAt = time.Now()
	index[session.Date] = session
	return s.saveIndex(index)
}
