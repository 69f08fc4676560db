// internal/inbox/ingest.go
// Package inbox ingests screenshot files dropped into a watched directory.
// Filenames encode the artifact key: SYMBOL_TIMEFRAME[_DATE].ext, with `_` or
// `-` as the separator. Files whose names don't parse are left in place so
// the operator can fix and re-drop them.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// Parsed is the artifact key recovered from an inbox filename.
type Parsed struct {
	Symbol    types.Symbol
	Timeframe types.Timeframe
	Date      types.SessionDate
	Ext       string
}

// ParseFilename decodes an inbox filename into an artifact key. When the name
// carries no date component the session date defaults to today in loc.
func ParseFilename(name string, symbols []types.Symbol, loc *time.Location, now time.Time) (*Parsed, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExtensions[ext] {
		return nil, &types.InvalidFilenameError{Name: name, Reason: fmt.Sprintf("unsupported extension %q", ext)}
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(parts) < 2 {
		return nil, &types.InvalidFilenameError{Name: name, Reason: "expected SYMBOL_TIMEFRAME or SYMBOL_TIMEFRAME_DATE"}
	}

	symbol, err := types.ParseSymbol(parts[0], symbols)
	if err != nil {
		return nil, &types.InvalidFilenameError{Name: name, Reason: err.Error()}
	}
	tf, err := types.ParseTimeframe(parts[1])
	if err != nil {
		return nil, &types.InvalidFilenameError{Name: name, Reason: err.Error()}
	}

	date := types.DateOf(now, loc)
	if len(parts) > 2 {
		// A date split on `-` comes back as three trailing parts.
		raw := strings.Join(parts[2:], "-")
		date, err = types.ParseSessionDate(raw)
		if err != nil {
			return nil, &types.InvalidFilenameError{Name: name, Reason: fmt.Sprintf("bad date %q", raw)}
		}
	}

	return &Parsed{Symbol: symbol, Timeframe: tf, Date: date, Ext: ext}, nil
}

// Summary reports the outcome of one inbox sweep. Dates lists the distinct
// session dates that received artifacts.
type Summary struct {
	Ingested int
	Replaced int
	Skipped  int
	Failed   []string
	Dates    []types.SessionDate
}

// Ingester sweeps the inbox directory into the artifact store.
type Ingester struct {
	dir     string
	store   types.ArtifactStore
	symbols []types.Symbol
	loc     *time.Location
	logger  *slog.Logger
}

func NewIngester(dir string, store types.ArtifactStore, symbols []types.Symbol, loc *time.Location, logger *slog.Logger) *Ingester {
	return &Ingester{dir: dir, store: store, symbols: symbols, loc: loc, logger: logger}
}

// Sweep ingests every parseable image in the inbox. Malformed names are
// recorded in the summary and their files stay where they are.
func (in *Ingester) Sweep(ctx context.Context) (*Summary, error) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Summary{}, nil
		}
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	summary := &Summary{}
	dates := make(map[types.SessionDate]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			summary.Skipped++
			continue
		}

		parsed, err := ParseFilename(name, in.symbols, in.loc, time.Now())
		if err != nil {
			in.logger.Warn("inbox file not ingested", "file", name, "error", err)
			summary.Failed = append(summary.Failed, name)
			continue
		}

		artifact := &types.Artifact{
			ID:         types.NewArtifactID(),
			Symbol:     parsed.Symbol,
			Timeframe:  parsed.Timeframe,
			Date:       parsed.Date,
			IngestedAt: time.Now().UTC(),
		}
		replaced, err := in.store.Put(ctx, artifact, filepath.Join(in.dir, name))
		if err != nil {
			in.logger.Error("failed to store artifact", "file", name, "error", err)
			summary.Failed = append(summary.Failed, name)
			continue
		}

		summary.Ingested++
		if replaced {
			summary.Replaced++
		}
		if !dates[parsed.Date] {
			dates[parsed.Date] = true
			summary.Dates = append(summary.Dates, parsed.Date)
		}
		in.logger.Info("artifact ingested",
			"symbol", parsed.Symbol,
			"timeframe", parsed.Timeframe,
			"date", parsed.Date,
			"replaced", replaced)
	}
	return summary, nil
}
