// Package state provides filesystem-backed storage for sessions, artifacts,
// calendar events, news items, and reports.
package state

import "github.com/user/chartadvisor/internal/types"

// Compile-time interface compliance checks.
var _ types.SessionStore = (*SessionStore)(nil)
var _ types.ArtifactStore = (*ArtifactStore)(nil)
var _ types.CalendarStore = (*CalendarStore)(nil)
var _ types.NewsStore = (*NewsStore)(nil)
var _ types.ReportStore = (*ReportStore)(nil)
