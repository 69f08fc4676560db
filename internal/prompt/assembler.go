// internal/prompt/assembler.go
// Package prompt assembles the daily analysis prompt from the session's
// artifacts, calendar cache and news cache. Assembly is deterministic: the
// same caches always produce the same bytes.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/chartadvisor/internal/calendar"
	"github.com/user/chartadvisor/internal/types"
)

// Options carries the assembly knobs taken from configuration.
type Options struct {
	Symbols      []types.Symbol
	Currencies   []string
	DangerWindow time.Duration
	NewsLookback time.Duration
	Location     *time.Location
}

// Result is one assembled prompt.
type Result struct {
	Path          string
	Markdown      []byte
	DangerWindows []types.DangerWindow
	TokenCount    int
}

// Assembler renders the daily prompt and writes it under the session's day
// directory.
type Assembler struct {
	root      string
	artifacts types.ArtifactStore
	calendar  types.CalendarStore
	news      types.NewsStore
	opts      Options
	tmpl      *template.Template
	encoder   *tiktoken.Tiktoken
	logger    *slog.Logger
}

func NewAssembler(root string, artifacts types.ArtifactStore, cal types.CalendarStore, news types.NewsStore, opts Options, logger *slog.Logger) (*Assembler, error) {
	tmpl, err := template.New("prompt").Parse(DefaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Assembler{
		root:      root,
		artifacts: artifacts,
		calendar:  cal,
		news:      news,
		opts:      opts,
		tmpl:      tmpl,
		logger:    logger,
	}, nil
}

// EnableTokenCount loads the tokenizer for model. Token counting needs
// encoding data that tiktoken fetches on first use, so it stays off unless a
// caller opts in.
func (a *Assembler) EnableTokenCount(model string) error {
	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return fmt.Errorf("loading tokenizer for %s: %w", model, err)
	}
	a.encoder = encoder
	return nil
}

// PromptPath is where the prompt for date is written.
func (a *Assembler) PromptPath(date types.SessionDate) string {
	return filepath.Join(a.root, "days", string(date), "prompt.md")
}

// Build renders and writes the prompt for date.
func (a *Assembler) Build(ctx context.Context, date types.SessionDate) (*Result, error) {
	data, windows, err := a.gather(ctx, date)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	markdown := buf.Bytes()

	path := a.PromptPath(date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, markdown, 0o644); err != nil {
		return nil, fmt.Errorf("writing prompt: %w", err)
	}

	result := &Result{Path: path, Markdown: markdown, DangerWindows: windows}
	if a.encoder != nil {
		result.TokenCount = len(a.encoder.Encode(string(markdown), nil, nil))
	}
	a.logger.Info("prompt assembled", "date", date, "bytes", len(markdown), "tokens", result.TokenCount)
	return result, nil
}

type templateData struct {
	Date          string
	TZ            string
	Currencies    string
	WindowMinutes int
	LookbackHours int
	Symbols       []symbolSection
	HasEvents     bool
	HighImpact    []eventRow
	OtherEvents   []eventRow
	DangerWindows []windowRow
	News          []newsRow
}

type symbolSection struct {
	Symbol       string
	HasArtifacts bool
	Rows         []artifactRow
}

type artifactRow struct {
	Timeframe string
	Path      string
	Missing   bool
}

type eventRow struct {
	Time     string
	Currency string
	Impact   string
	Title    string
	Forecast string
	Previous string
}

type windowRow struct {
	Start  string
	End    string
	Titles string
}

type newsRow struct {
	Marker string
	Title  string
	URL    string
	Source string
}

func (a *Assembler) gather(ctx context.Context, date types.SessionDate) (*templateData, []types.DangerWindow, error) {
	artifacts, err := a.artifacts.ListByDate(ctx, date)
	if err != nil {
		return nil, nil, err
	}

	dayStart, dayEnd := date.DayBounds(a.opts.Location)
	events, err := a.calendar.EventsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, nil, err
	}
	windows := calendar.DangerWindows(events, a.opts.DangerWindow)

	items, err := a.news.Since(ctx, dayStart.Add(-a.opts.NewsLookback))
	if err != nil {
		return nil, nil, err
	}

	data := &templateData{
		Date:          string(date),
		TZ:            a.opts.Location.String(),
		Currencies:    strings.Join(a.opts.Currencies, "/"),
		WindowMinutes: int(a.opts.DangerWindow.Minutes()),
		LookbackHours: int(a.opts.NewsLookback.Hours()),
		HasEvents:     len(events) > 0,
	}

	byKey := make(map[string]*types.Artifact, len(artifacts))
	for _, art := range artifacts {
		byKey[string(art.Symbol)+"/"+string(art.Timeframe)] = art
	}
	for _, symbol := range a.opts.Symbols {
		section := symbolSection{Symbol: string(symbol)}
		for _, tf := range types.Timeframes() {
			row := artifactRow{Timeframe: string(tf), Missing: true}
			if art, ok := byKey[string(symbol)+"/"+string(tf)]; ok {
				row.Path = art.Path
				row.Missing = false
				section.HasArtifacts = true
			}
			section.Rows = append(section.Rows, row)
		}
		data.Symbols = append(data.Symbols, section)
	}

	for _, event := range events {
		row := eventRow{
			Time:     event.At.In(a.opts.Location).Format("15:04"),
			Currency: event.Currency,
			Impact:   string(event.Impact),
			Title:    event.Title,
			Forecast: orDash(event.Forecast),
			Previous: orDash(event.Previous),
		}
		if event.Impact == types.ImpactHigh {
			data.HighImpact = append(data.HighImpact, row)
		} else {
			data.OtherEvents = append(data.OtherEvents, row)
		}
	}

	for _, w := range windows {
		data.DangerWindows = append(data.DangerWindows, windowRow{
			Start:  w.Start.In(a.opts.Location).Format("15:04"),
			End:    w.End.In(a.opts.Location).Format("15:04"),
			Titles: strings.Join(w.Titles, "; "),
		})
	}

	// Items are newest first; cap the list so one busy week doesn't swamp
	// the prompt.
	if len(items) > 10 {
		items = items[:10]
	}
	for _, item := range items {
		data.News = append(data.News, newsRow{
			Marker: stanceMarker(item.Stance),
			Title:  item.Title,
			URL:    item.URL,
			Source: item.Source,
		})
	}

	return data, windows, nil
}

func stanceMarker(stance string) string {
	switch stance {
	case "hawkish":
		return "🔴"
	case "dovish":
		return "🟢"
	default:
		return "⚪"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
