// internal/pipeline/locks.go
package pipeline

import (
	"sync"

	"github.com/user/chartadvisor/internal/types"
)

// sessionLocks serializes pipeline operations per session date. Acquisition
// is advisory: a busy date fails fast instead of queueing.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[types.SessionDate]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[types.SessionDate]*sync.Mutex)}
}

// acquire takes the lock for date, or returns ErrSessionBusy if another
// operation holds it. The returned func releases the lock.
func (s *sessionLocks) acquire(date types.SessionDate) (func(), error) {
	s.mu.Lock()
	lock, ok := s.locks[date]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[date] = lock
	}
	s.mu.Unlock()

	if !lock.TryLock() {
		return nil, types.ErrSessionBusy
	}
	return lock.Unlock, nil
}
