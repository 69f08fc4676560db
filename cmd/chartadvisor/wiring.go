package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/user/chartadvisor/internal/calendar"
	"github.com/user/chartadvisor/internal/config"
	"github.com/user/chartadvisor/internal/inbox"
	"github.com/user/chartadvisor/internal/news"
	"github.com/user/chartadvisor/internal/notify"
	"github.com/user/chartadvisor/internal/pipeline"
	"github.com/user/chartadvisor/internal/prompt"
	"github.com/user/chartadvisor/internal/state"
	"github.com/user/chartadvisor/internal/types"
)

// app bundles the wired pipeline with the stores commands need directly.
type app struct {
	cfg       *config.Config
	pipeline  *pipeline.Pipeline
	sessions  *state.SessionStore
	artifacts *state.ArtifactStore
	reports   *state.ReportStore
}

// buildApp wires stores, feed sources and the pipeline from config.
func buildApp(cfg *config.Config) (*app, error) {
	logger := slog.Default()
	loc := cfg.Location()

	symbols := make([]types.Symbol, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols = append(symbols, types.Symbol(s))
	}

	sessions := state.NewSessionStore(cfg.DataDir)
	artifacts := state.NewArtifactStore(cfg.DataDir)
	calStore := state.NewCalendarStore(cfg.DataDir)
	newsStore := state.NewNewsStore(cfg.DataDir)
	reports := state.NewReportStore(cfg.DataDir)
	journal := state.NewJournal(cfg.DataDir)

	ingester := inbox.NewIngester(cfg.InboxDir, artifacts, symbols, loc, logger)
	calSource := calendar.NewForexFactory(cfg.Calendar.BaseURL, cfg.Calendar.Currencies, loc, logger)
	sources, err := news.Sources(cfg.News.Sources, logger)
	if err != nil {
		return nil, err
	}

	assembler, err := prompt.NewAssembler(cfg.DataDir, artifacts, calStore, newsStore, prompt.Options{
		Symbols:      symbols,
		Currencies:   cfg.Calendar.Currencies,
		DangerWindow: time.Duration(cfg.DangerWindowMinutes) * time.Minute,
		NewsLookback: time.Duration(cfg.NewsLookbackHours) * time.Hour,
		Location:     loc,
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Prompt.TokenizerModel != "" {
		if err := assembler.EnableTokenCount(cfg.Prompt.TokenizerModel); err != nil {
			logger.Warn("token counting disabled", "error", err)
		}
	}

	p := pipeline.New(sessions, artifacts, calStore, newsStore, reports, journal, ingester,
		calSource, sources, assembler,
		pipeline.Options{
			Location:        loc,
			DangerWindow:    time.Duration(cfg.DangerWindowMinutes) * time.Minute,
			NewsLookback:    time.Duration(cfg.NewsLookbackHours) * time.Hour,
			CalendarEnabled: cfg.Calendar.Enabled,
			NewsEnabled:     cfg.News.Enabled,
			RetainResponses: cfg.RetainResponses,
		}, logger)

	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("create telegram notifier: %w", err)
		}
		p.SetNotifier(notifier)
	}

	return &app{
		cfg:       cfg,
		pipeline:  p,
		sessions:  sessions,
		artifacts: artifacts,
		reports:   reports,
	}, nil
}

// sessionDate resolves an optional date argument, defaulting to today in the
// configured timezone.
func sessionDate(cfg *config.Config, args []string) (types.SessionDate, error) {
	if len(args) > 0 {
		return types.ParseSessionDate(args[0])
	}
	return types.DateOf(time.Now(), cfg.Location()), nil
}
