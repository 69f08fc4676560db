// internal/pipeline/pipeline.go
// Package pipeline drives the daily session through its lifecycle:
// empty -> collected -> prompted -> analyzed. Every operation takes the
// session's advisory lock; a concurrent operation on the same date fails
// fast with ErrSessionBusy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/chartadvisor/internal/calendar"
	"github.com/user/chartadvisor/internal/inbox"
	"github.com/user/chartadvisor/internal/prompt"
	"github.com/user/chartadvisor/internal/report"
	"github.com/user/chartadvisor/internal/state"
	"github.com/user/chartadvisor/internal/types"
)

// Options carries the pipeline knobs taken from configuration.
type Options struct {
	Location        *time.Location
	DangerWindow    time.Duration
	NewsLookback    time.Duration
	CalendarEnabled bool
	NewsEnabled     bool
	RetainResponses bool
}

// Pipeline wires the stores, feed sources and prompt assembler together.
type Pipeline struct {
	sessions  types.SessionStore
	artifacts types.ArtifactStore
	calStore  types.CalendarStore
	newsStore types.NewsStore
	reports   types.ReportStore
	journal   *state.Journal

	ingester  *inbox.Ingester
	calSource types.CalendarSource
	sources   []types.NewsSource
	assembler *prompt.Assembler
	notifier  types.Notifier

	locks  *sessionLocks
	retry  *RetryPolicy
	opts   Options
	logger *slog.Logger
}

func New(
	sessions types.SessionStore,
	artifacts types.ArtifactStore,
	calStore types.CalendarStore,
	newsStore types.NewsStore,
	reports types.ReportStore,
	journal *state.Journal,
	ingester *inbox.Ingester,
	calSource types.CalendarSource,
	sources []types.NewsSource,
	assembler *prompt.Assembler,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sessions:  sessions,
		artifacts: artifacts,
		calStore:  calStore,
		newsStore: newsStore,
		reports:   reports,
		journal:   journal,
		ingester:  ingester,
		calSource: calSource,
		sources:   sources,
		assembler: assembler,
		locks:     newSessionLocks(),
		retry:     DefaultRetryPolicy(),
		opts:      opts,
		logger:    logger,
	}
}

// SetNotifier attaches an operator notification channel. Without one the
// pipeline runs silently.
func (p *Pipeline) SetNotifier(n types.Notifier) { p.notifier = n }

// Ingest sweeps the inbox and advances every touched session that now has
// everything it needs.
func (p *Pipeline) Ingest(ctx context.Context) (*inbox.Summary, error) {
	summary, err := p.ingester.Sweep(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, date := range summary.Dates {
		release, err := p.locks.acquire(date)
		if err != nil {
			return summary, err
		}
		err = p.markArtifacts(ctx, date, now)
		release()
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (p *Pipeline) markArtifacts(ctx context.Context, date types.SessionDate, at time.Time) error {
	session, err := p.sessions.GetOrCreate(ctx, date)
	if err != nil {
		return err
	}
	session.ArtifactsAt = &at
	if err := p.maybeCollect(ctx, session); err != nil {
		return err
	}
	return p.record(ctx, date, "ingest", "artifacts ingested")
}

// Collect refreshes the calendar and news caches for the session's date and
// advances the session to collected once artifacts and feeds are in place.
// The two feeds refresh in parallel; a failure in either fails the whole
// operation after retries.
func (p *Pipeline) Collect(ctx context.Context, date types.SessionDate) error {
	release, err := p.locks.acquire(date)
	if err != nil {
		return err
	}
	defer release()

	session, err := p.sessions.GetOrCreate(ctx, date)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.opts.CalendarEnabled {
		g.Go(func() error {
			return p.retry.Execute(gctx, func() error {
				return p.refreshCalendar(gctx, date)
			})
		})
	}
	if p.opts.NewsEnabled {
		g.Go(func() error {
			return p.retry.Execute(gctx, func() error {
				return p.refreshNews(gctx)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.opts.CalendarEnabled {
		session.CalendarAt = &now
	}
	if p.opts.NewsEnabled {
		session.NewsAt = &now
	}
	if count, err := p.artifacts.CountByDate(ctx, date); err == nil && count > 0 && session.ArtifactsAt == nil {
		session.ArtifactsAt = &now
	}

	if err := p.maybeCollect(ctx, session); err != nil {
		return err
	}
	return p.record(ctx, date, "collect", "feeds refreshed")
}

// RefreshCalendar refreshes only the calendar cache for the date's session.
func (p *Pipeline) RefreshCalendar(ctx context.Context, date types.SessionDate) error {
	if !p.opts.CalendarEnabled {
		return fmt.Errorf("calendar collection is disabled")
	}

	release, err := p.locks.acquire(date)
	if err != nil {
		return err
	}
	defer release()

	session, err := p.sessions.GetOrCreate(ctx, date)
	if err != nil {
		return err
	}
	if err := p.retry.Execute(ctx, func() error {
		return p.refreshCalendar(ctx, date)
	}); err != nil {
		return err
	}

	now := time.Now().UTC()
	session.CalendarAt = &now
	if err := p.maybeCollect(ctx, session); err != nil {
		return err
	}
	return p.record(ctx, date, "collect", "calendar refreshed")
}

// RefreshNews refreshes only the news cache for the date's session.
func (p *Pipeline) RefreshNews(ctx context.Context, date types.SessionDate) error {
	if !p.opts.NewsEnabled {
		return fmt.Errorf("news collection is disabled")
	}

	release, err := p.locks.acquire(date)
	if err != nil {
		return err
	}
	defer release()

	session, err := p.sessions.GetOrCreate(ctx, date)
	if err != nil {
		return err
	}
	if err := p.retry.Execute(ctx, func() error {
		return p.refreshNews(ctx)
	}); err != nil {
		return err
	}

	now := time.Now().UTC()
	session.NewsAt = &now
	if err := p.maybeCollect(ctx, session); err != nil {
		return err
	}
	return p.record(ctx, date, "collect", "news refreshed")
}

// refreshCalendar replaces the cached months covering the session date and
// its predecessor.
func (p *Pipeline) refreshCalendar(ctx context.Context, date types.SessionDate) error {
	dayStart, _ := date.DayBounds(p.opts.Location)
	from := time.Date(dayStart.Year(), dayStart.Month(), 1, 0, 0, 0, 0, p.opts.Location).AddDate(0, -1, 0)
	to := from.AddDate(0, 2, 0)

	events, err := p.calSource.Fetch(ctx, from, to)
	if err != nil {
		return err
	}
	if err := p.calStore.ReplaceRange(ctx, from, to, events); err != nil {
		return err
	}
	p.logger.Info("calendar refreshed", "from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"), "events", len(events))
	return nil
}

func (p *Pipeline) refreshNews(ctx context.Context) error {
	since := time.Now().Add(-p.opts.NewsLookback)
	for _, source := range p.sources {
		items, err := source.Fetch(ctx, since)
		if err != nil {
			return err
		}
		added, err := p.newsStore.Add(ctx, items)
		if err != nil {
			return err
		}
		p.logger.Info("news refreshed", "source", source.Name(), "fetched", len(items), "added", added)
	}
	return nil
}

// maybeCollect advances an empty session to collected once it has artifacts
// and every enabled feed has been refreshed. Disabled feeds count as
// satisfied.
func (p *Pipeline) maybeCollect(ctx context.Context, session *types.Session) error {
	if session.Status == types.StatusEmpty {
		count, err := p.artifacts.CountByDate(ctx, session.Date)
		if err != nil {
			return err
		}
		calendarReady := !p.opts.CalendarEnabled || session.CalendarAt != nil
		newsReady := !p.opts.NewsEnabled || session.NewsAt != nil
		if count > 0 && calendarReady && newsReady {
			session.Status = types.StatusCollected
			p.logger.Info("session collected", "date", session.Date, "artifacts", count)
		}
	}
	return p.sessions.Update(ctx, session)
}

// Assemble renders the prompt for the date's session. The session must be at
// least collected; re-assembling a prompted or analyzed session is allowed
// and, with unchanged caches, reproduces the same bytes.
func (p *Pipeline) Assemble(ctx context.Context, date types.SessionDate) (*prompt.Result, error) {
	release, err := p.locks.acquire(date)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := p.sessions.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}
	if !session.Status.AtLeast(types.StatusCollected) {
		return nil, &types.PreconditionError{Date: date, Status: session.Status, Op: "assemble prompt"}
	}

	result, err := p.assembler.Build(ctx, date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.PromptPath = result.Path
	session.PromptedAt = &now
	if session.Status == types.StatusCollected {
		session.Status = types.StatusPrompted
	}
	if err := p.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	if err := p.record(ctx, date, "prompt", fmt.Sprintf("prompt assembled (%d bytes)", len(result.Markdown))); err != nil {
		return nil, err
	}

	if p.notifier != nil {
		msg := fmt.Sprintf("Prompt ready for %s: %s", date, result.Path)
		if err := p.notifier.Notify(ctx, msg); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}
	return result, nil
}

// Respond validates a raw analysis payload and persists the resulting report,
// advancing the session to analyzed. Invalid payloads are always retained for
// inspection; valid ones are retained when configured. A repeat response
// replaces the previous report.
func (p *Pipeline) Respond(ctx context.Context, date types.SessionDate, raw []byte) (*types.Report, error) {
	release, err := p.locks.acquire(date)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := p.sessions.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	if !session.Status.AtLeast(types.StatusPrompted) {
		return nil, &types.PreconditionError{Date: date, Status: session.Status, Op: "accept response"}
	}

	symbols, err := p.sessionSymbols(ctx, date)
	if err != nil {
		return nil, err
	}

	resp, parseErr := report.Parse(raw, symbols)
	if parseErr != nil {
		if err := p.reports.SaveResponse(ctx, date, raw); err != nil {
			p.logger.Error("failed to retain invalid response", "date", date, "error", err)
		}
		if err := p.record(ctx, date, "respond", "response rejected: "+parseErr.Error()); err != nil {
			return nil, err
		}
		return nil, parseErr
	}

	if p.opts.RetainResponses {
		if err := p.reports.SaveResponse(ctx, date, raw); err != nil {
			return nil, err
		}
	}

	windows, err := p.dangerWindows(ctx, date)
	if err != nil {
		return nil, err
	}
	rep := report.Build(resp, date, windows)
	if err := p.reports.Save(ctx, rep); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.Status = types.StatusAnalyzed
	session.ReportID = rep.ID
	session.AnalyzedAt = &now
	if err := p.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	if err := p.record(ctx, date, "respond", fmt.Sprintf("report saved: %s %s", rep.Symbol, rep.Bias)); err != nil {
		return nil, err
	}

	if p.notifier != nil {
		msg := fmt.Sprintf("Report ready for %s: %s %s (confidence %.2f)", date, rep.Symbol, rep.Bias, rep.Confidence)
		if err := p.notifier.Notify(ctx, msg); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}
	return rep, nil
}

// Reset returns the session to empty. The report and prompt are removed;
// screenshots and retained raw responses stay on disk. Resetting an already
// empty session is a no-op.
func (p *Pipeline) Reset(ctx context.Context, date types.SessionDate) error {
	release, err := p.locks.acquire(date)
	if err != nil {
		return err
	}
	defer release()

	session, err := p.sessions.Get(ctx, date)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if session.Status == types.StatusEmpty {
		return nil
	}

	if err := p.reports.Delete(ctx, date); err != nil {
		return err
	}
	if session.PromptPath != "" {
		if err := os.Remove(session.PromptPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	session.Status = types.StatusEmpty
	session.ArtifactsAt = nil
	session.CalendarAt = nil
	session.NewsAt = nil
	session.PromptPath = ""
	session.PromptedAt = nil
	session.ReportID = ""
	session.AnalyzedAt = nil
	if err := p.sessions.Update(ctx, session); err != nil {
		return err
	}
	return p.record(ctx, date, "reset", "session reset")
}

// Info is a session snapshot with cache counts for status displays.
type Info struct {
	Session   *types.Session
	Artifacts int
	Events    int
	News      int
	HasReport bool
}

// Status reports the session and the size of each cache backing it.
func (p *Pipeline) Status(ctx context.Context, date types.SessionDate) (*Info, error) {
	session, err := p.sessions.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}

	count, err := p.artifacts.CountByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := date.DayBounds(p.opts.Location)
	events, err := p.calStore.EventsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	items, err := p.newsStore.Since(ctx, dayStart.Add(-p.opts.NewsLookback))
	if err != nil {
		return nil, err
	}

	info := &Info{Session: session, Artifacts: count, Events: len(events), News: len(items)}
	if _, err := p.reports.Get(ctx, date); err == nil {
		info.HasReport = true
	}
	return info, nil
}

// Journal returns the most recent journal entries for a date.
func (p *Pipeline) Journal(ctx context.Context, date types.SessionDate, limit int) ([]*state.JournalEntry, error) {
	return p.journal.Tail(ctx, date, limit)
}

func (p *Pipeline) sessionSymbols(ctx context.Context, date types.SessionDate) ([]types.Symbol, error) {
	artifacts, err := p.artifacts.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	seen := make(map[types.Symbol]bool)
	var symbols []types.Symbol
	for _, art := range artifacts {
		if !seen[art.Symbol] {
			seen[art.Symbol] = true
			symbols = append(symbols, art.Symbol)
		}
	}
	return symbols, nil
}

func (p *Pipeline) dangerWindows(ctx context.Context, date types.SessionDate) ([]types.DangerWindow, error) {
	dayStart, dayEnd := date.DayBounds(p.opts.Location)
	events, err := p.calStore.EventsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return calendar.DangerWindows(events, p.opts.DangerWindow), nil
}

func (p *Pipeline) record(ctx context.Context, date types.SessionDate, typ, detail string) error {
	return p.journal.Append(ctx, &state.JournalEntry{Date: date, Type: typ, Detail: detail})
}
