package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionStatusCmd, sessionResetCmd, sessionLogCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage daily sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		list, err := app.sessions.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSTATUS\tARTIFACTS\tREPORT\tUPDATED")
		for _, s := range list {
			count, err := app.artifacts.CountByDate(ctx, s.Date)
			if err != nil {
				count = 0
			}
			report := "-"
			if s.ReportID != "" {
				report = string(s.ReportID)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				s.Date,
				s.Status,
				count,
				report,
				s.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status [date]",
	Short: "Show a session and its cache counts",
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

		info, err := app.pipeline.Status(context.Background(), date)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Session:    %s\n", info.Session.Date)
		fmt.Fprintf(os.Stdout, "Status:     %s\n", info.Session.Status)
		fmt.Fprintf(os.Stdout, "Artifacts:  %d\n", info.Artifacts)
		fmt.Fprintf(os.Stdout, "Events:     %d\n", info.Events)
		fmt.Fprintf(os.Stdout, "News:       %d\n", info.News)
		if info.Session.PromptPath != "" {
			fmt.Fprintf(os.Stdout, "Prompt:     %s\n", info.Session.PromptPath)
		}
		if info.HasReport {
			fmt.Fprintf(os.Stdout, "Report:     %s\n", info.Session.ReportID)
		}
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset [date]",
	Short: "Reset a session to empty (keeps screenshots)",
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

		if err := app.pipeline.Reset(context.Background(), date); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Session %s reset.\n", date)
		return nil
	},
}

var sessionLogCmd = &cobra.Command{
	Use:   "log [date]",
	Short: "Show the transition journal for a session",
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

		entries, err := app.pipeline.Journal(context.Background(), date, 50)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No journal entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(os.Stdout, "%s  %-8s %s\n", e.At.Format("2006-01-02 15:04:05"), e.Type, e.Detail)
		}
		return nil
	},
}
