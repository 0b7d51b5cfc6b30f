package main

import (
	"fmt"
	"time"

	"smart-shopping-list/internal/config"
	"smart-shopping-list/internal/database"
	"smart-shopping-list/internal/httpapi"
	"smart-shopping-list/internal/metrics"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewUsageCommand prints LLM token usage per day.
func NewUsageCommand(opts *RootOptions) *cobra.Command {
	var (
		days    int
		byAgent bool
	)
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show LLM token usage per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openMetrics()
			if err != nil {
				return err
			}
			defer closeDB()

			usage, err := store.GetDailyUsage(days)
			if err != nil {
				return err
			}
			if len(usage) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No data yet")
			}
			for _, d := range usage {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s tokens  (%d execs)\n",
					d.Date, color.CyanString("%d", d.TotalPrompt+d.TotalCompletion), d.TotalExecution)
			}
			if !byAgent {
				return nil
			}

			agents, err := store.GetAgentUsage(days)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			for _, a := range agents {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s tokens  %4d calls  avg %s\n",
					a.AgentName, color.CyanString("%d", a.PromptTokens+a.CompletionTokens), a.Executions, a.AvgLatency.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to report")
	cmd.Flags().BoolVar(&byAgent, "by-agent", false, "also break usage down per agent")
	return cmd
}

// NewMetricsCleanupCommand removes old metric records.
func NewMetricsCleanupCommand(opts *RootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old metric records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openMetrics()
			if err != nil {
				return err
			}
			defer closeDB()

			affected, err := store.Cleanup(days)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "keep records for the last N days")
	return cmd
}

// NewTokenCommand issues an API bearer token for a user.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an HTTP API token for --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			tok, err := httpapi.IssueToken(cfg.APIJWTSecret, opts.User, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}

// openMetrics opens the metrics store without initializing any LLM client.
func openMetrics() (*metrics.Store, func(), error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return metrics.NewStore(db.SQL), func() { db.Close() }, nil
}
