package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ingestCmd, collectCmd, refreshCmd, promptCmd, respondCmd, reportCmd)
	refreshCmd.AddCommand(refreshCalendarCmd, refreshNewsCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Sweep the inbox for new screenshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}

		summary, err := app.pipeline.Ingest(context.Background())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Ingested %d screenshot(s) (%d replaced).\n", summary.Ingested, summary.Replaced)
		if len(summary.Failed) > 0 {
			fmt.Fprintf(os.Stdout, "Left in inbox (bad names): %s\n", strings.Join(summary.Failed, ", "))
		}
		return nil
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect [date]",
	Short: "Refresh calendar and news caches for a session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		date, err := sessionDate(cfg, args)
		if err != nil {
			return err
		}

		if err := app.pipeline.Collect(context.Background(), date); err != nil {
			return err
		}
		info, err := app.pipeline.Status(context.Background(), date)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Session %s is %s (%d artifact(s), %d event(s), %d news item(s)).\n",
			date, info.Session.Status, info.Artifacts, info.Events, info.News)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh a single feed cache",
}

var refreshCalendarCmd = &cobra.Command{
	Use:   "calendar [date]",
	Short: "Refresh only the economic-calendar cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		date, err := sessionDate(cfg, args)
		if err != nil {
			return err
		}

		if err := app.pipeline.RefreshCalendar(context.Background(), date); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Calendar refreshed for %s.\n", date)
		return nil
	},
}

var refreshNewsCmd = &cobra.Command{
	Use:   "news [date]",
	Short: "Refresh only the news cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		date, err := sessionDate(cfg, args)
		if err != nil {
			return err
		}

		if err := app.pipeline.RefreshNews(context.Background(), date); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "News refreshed for %s.\n", date)
		return nil
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt [date]",
	Short: "Assemble the analysis prompt for a session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		date, err := sessionDate(cfg, args)
		if err != nil {
			return err
		}

		result, err := app.pipeline.Assemble(context.Background(), date)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Prompt written to %s", result.Path)
		if result.TokenCount > 0 {
			fmt.Fprintf(os.Stdout, " (%d tokens)", result.TokenCount)
		}
		fmt.Fprintln(os.Stdout)
		return nil
	},
}

var respondCmd = &cobra.Command{
	Use:   "respond [date] [file]",
	Short: "Submit an analysis response (from a file or stdin)",
	Long: `Validates a raw analysis payload and saves the resulting report.
With no file argument the payload is read from stdin.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		date, err := sessionDate(cfg, args)
		if err != nil {
			return err
		}

		var raw []byte
		if len(args) > 1 {
			raw, err = os.ReadFile(args[1])
		} else {
			raw, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("read response payload: %w", err)
		}

		report, err := app.pipeline.Respond(context.Background(), date, raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Report saved: %s %s (confidence %.2f)\n", report.Symbol, report.Bias, report.Confidence)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Print the report for a session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		date, err := sessionDate(cfg, args)
		if err != nil {
			return err
		}

		report, err := app.reports.Get(context.Background(), date)
		if err != nil {
			return fmt.Errorf("no report for %s", date)
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}
