// internal/types/interfaces.go
package types

import (
	"context"
	"time"
)

type SessionStore interface {
	GetOrCreate(ctx context.Context, date SessionDate) (*Session, error)
	Get(ctx context.Context, date SessionDate) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	Update(ctx context.Context, session *Session) error
}

type ArtifactStore interface {
	Put(ctx context.Context, artifact *Artifact, srcPath string) (replaced bool, err error)
	ListByDate(ctx context.Context, date SessionDate) ([]*Artifact, error)
	CountByDate(ctx context.Context, date SessionDate) (int, error)
}

type CalendarStore interface {
	ReplaceRange(ctx context.Context, from, to time.Time, events []CalendarEvent) error
	EventsBetween(ctx context.Context, from, to time.Time) ([]CalendarEvent, error)
}

type NewsStore interface {
	Add(ctx context.Context, items []NewsItem) (added int, err error)
	Since(ctx context.Context, cutoff time.Time) ([]NewsItem, error)
}

type ReportStore interface {
	Save(ctx context.Context, report *Report) error
	Get(ctx context.Context, date SessionDate) (*Report, error)
	Delete(ctx context.Context, date SessionDate) error
	SaveResponse(ctx context.Context, date SessionDate, raw []byte) error
}

// CalendarSource supplies raw economic-calendar events for a time range.
type CalendarSource interface {
	Fetch(ctx context.Context, from, to time.Time) ([]CalendarEvent, error)
}

// NewsSource supplies raw news items published after the cutoff.
type NewsSource interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) ([]NewsItem, error)
}

// Notifier announces pipeline milestones to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
