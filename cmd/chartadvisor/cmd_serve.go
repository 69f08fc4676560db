package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/chartadvisor/internal/scheduler"
	"github.com/user/chartadvisor/internal/types"
	"github.com/user/chartadvisor/internal/webhook"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chartadvisor daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "chartadvisor.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Write PID file
	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	today := func() types.SessionDate {
		return types.DateOf(time.Now(), cfg.Location())
	}

	calSchedule := cfg.Schedules.Calendar
	if !cfg.Calendar.Enabled {
		calSchedule = ""
	}
	newsSchedule := cfg.Schedules.News
	if !cfg.News.Enabled {
		newsSchedule = ""
	}

	// Scheduled jobs run the same pipeline operations the CLI exposes; the
	// per-date lock makes an overlap with a manual run a clean no-op.
	jobs := []scheduler.Job{
		{
			Name:     "inbox-sweep",
			Schedule: cfg.Schedules.Inbox,
			Run: func() {
				if _, err := app.pipeline.Ingest(ctx); err != nil {
					slog.Error("scheduled ingest failed", "error", err)
				}
			},
		},
		{
			Name:     "calendar-refresh",
			Schedule: calSchedule,
			Run: func() {
				if err := app.pipeline.RefreshCalendar(ctx, today()); err != nil {
					slog.Error("scheduled calendar refresh failed", "error", err)
				}
			},
		},
		{
			Name:     "news-refresh",
			Schedule: newsSchedule,
			Run: func() {
				if err := app.pipeline.RefreshNews(ctx, today()); err != nil {
					slog.Error("scheduled news refresh failed", "error", err)
				}
			},
		},
	}

	sched := scheduler.New(jobs)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started")

	// Webhook HTTP server
	srv := webhook.NewServer(app.pipeline, app.sessions, app.reports)
	httpServer := &http.Server{
		Addr:    cfg.Serve.Addr,
		Handler: srv,
	}
	go func() {
		slog.Info("webhook server started", "listen", cfg.Serve.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("webhook server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	slog.Info("chartadvisor started",
		"data_dir", cfg.DataDir,
		"inbox_dir", cfg.InboxDir,
		"timezone", cfg.Timezone,
		"symbols", cfg.Symbols,
		"listen", cfg.Serve.Addr,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				// Re-write PID file since we failed to re-exec
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
