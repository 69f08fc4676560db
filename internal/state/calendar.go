// internal/state/calendar.go
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

// CalendarStore caches economic-calendar events in calendar/events.json.
// Refreshes replace only the events whose timestamps fall inside the fetched
// range, so a failed fetch for one range never disturbs the rest of the cache.
type CalendarStore struct {
	root string
	mu   sync.RWMutex
}

// NewCalendarStore creates a file-backed CalendarStore rooted at the given directory.
func NewCalendarStore(root string) *CalendarStore {
	return &CalendarStore{root: root}
}

func (c *CalendarStore) eventsPath() string {
	return filepath.Join(c.root, "calendar", "events.json")
}

func (c *CalendarStore) load() ([]types.CalendarEvent, error) {
	data, err := os.ReadFile(c.eventsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read calendar cache: %w", err)
	}
	var events []types.CalendarEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("unmarshal calendar cache: %w", err)
	}
	return events, nil
}

func (c *CalendarStore) save(events []types.CalendarEvent) error {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].At.Equal(events[j].At) {
			return events[i].At.Before(events[j].At)
		}
		if events[i].Currency != events[j].Currency {
			return events[i].Currency < events[j].Currency
		}
		return events[i].Title < events[j].Title
	})

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calendar cache: %w", err)
	}

	dir := filepath.Dir(c.eventsPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create calendar dir: %w", err)
	}

	tmp := c.eventsPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp calendar cache: %w", err)
	}
	if err := os.Rename(tmp, c.eventsPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp calendar cache: %w", err)
	}
	return nil
}

// ReplaceRange drops cached events with timestamps in [from, to) and inserts
// the given events in their place, in one atomic write.
func (c *CalendarStore) ReplaceRange(_ context.Context, from, to time.Time, events []types.CalendarEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, err := c.load()
	if err != nil {
		return err
	}

	kept := make([]types.CalendarEvent, 0, len(cached)+len(events))
	for _, ev := range cached {
		if ev.At.Before(from) || !ev.At.Before(to) {
			kept = append(kept, ev)
		}
	}
	for _, ev := range events {
		if !ev.At.Before(from) && ev.At.Before(to) {
			kept = append(kept, ev)
		}
	}
	return c.save(kept)
}

// EventsBetween returns cached events with timestamps in [from, to),
// ordered by time.
func (c *CalendarStore) EventsBetween(_ context.Context, from, to time.Time) ([]types.CalendarEvent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, err := c.load()
	if err != nil {
		return nil, err
	}

	var events []types.CalendarEvent
	for _, ev := range cached {
		if !ev.At.Before(from) && ev.At.Before(to) {
			events = append(events, ev)
		}
	}
	return events, nil
}
