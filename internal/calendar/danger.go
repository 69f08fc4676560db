// internal/calendar/danger.go
package calendar

import (
	"sort"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

// DangerWindows builds the no-trade windows for a set of events. Each medium
// or high impact event contributes [At-window, At+window]; overlapping or
// touching windows are merged and carry the titles of every contributing
// event. Low impact events never produce a window.
func DangerWindows(events []types.CalendarEvent, window time.Duration) []types.DangerWindow {
	var dangerous []types.CalendarEvent
	for _, event := range events {
		if event.Impact.Dangerous() {
			dangerous = append(dangerous, event)
		}
	}
	if len(dangerous) == 0 {
		return nil
	}

	sort.Slice(dangerous, func(i, j int) bool {
		return dangerous[i].At.Before(dangerous[j].At)
	})

	var windows []types.DangerWindow
	for _, event := range dangerous {
		start := event.At.Add(-window)
		end := event.At.Add(window)

		if len(windows) > 0 && !start.After(windows[len(windows)-1].End) {
			cur := &windows[len(windows)-1]
			if end.After(cur.End) {
				cur.End = end
			}
			cur.Titles = append(cur.Titles, event.Title)
			continue
		}
		windows = append(windows, types.DangerWindow{
			Start:  start,
			End:    end,
			Titles: []string{event.Title},
		})
	}
	return windows
}

// InDanger reports whether t falls inside any of the windows.
func InDanger(t time.Time, windows []types.DangerWindow) bool {
	for _, w := range windows {
		if !t.Before(w.Start) && !t.After(w.End) {
			return true
		}
	}
	return false
}
