// internal/types/ids.go
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionDate identifies a trading session: one calendar date in the
// configured timezone, formatted 2006-01-02.
type SessionDate string

type ArtifactID string
type ReportID string

// ArtifactKey is the upsert key for screenshots: SYMBOL:TIMEFRAME:DATE.
type ArtifactKey string

func NewArtifactID() ArtifactID {
	return ArtifactID(uuid.New().String())
}

func NewReportID() ReportID {
	return ReportID(uuid.New().String())
}

func NewArtifactKey(symbol Symbol, tf Timeframe, date SessionDate) ArtifactKey {
	return ArtifactKey(fmt.Sprintf("%s:%s:%s", symbol, tf, date))
}

// DateOf buckets a point in time into a SessionDate in the given timezone.
func DateOf(t time.Time, loc *time.Location) SessionDate {
	return SessionDate(t.In(loc).Format("2006-01-02"))
}

// ParseSessionDate validates an ISO calendar date string.
func ParseSessionDate(s string) (SessionDate, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid session date %q: %w", s, err)
	}
	return SessionDate(s), nil
}

// DayBounds returns the start and end instants of the session date in loc.
func (d SessionDate) DayBounds(loc *time.Location) (time.Time, time.Time) {
	t, _ := time.ParseInLocation("2006-01-02", string(d), loc)
	return t, t.AddDate(0, 0, 1)
}
