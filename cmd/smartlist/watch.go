package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"smart-shopping-list/internal/events"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewWatchCommand tails engine events from the Redis channel a running
// server publishes to.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow ingestion events published by a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.RedisAddr == "" {
				return fmt.Errorf("REDIS_ADDR environment variable not set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return err
			}
			defer log.Sync()

			sub, err := events.NewRedisPublisher(ctx, log, cfg.RedisAddr, cfg.RedisChannel)
			if err != nil {
				return err
			}
			defer sub.Close()

			out := cmd.OutOrStdout()
			if err := sub.Subscribe(ctx, func(m events.Message) {
				fmt.Fprintln(out, formatMessage(m))
			}); err != nil {
				return err
			}
			fmt.Fprintf(out, "Watching %s on %s (Ctrl+C to stop)\n", cfg.RedisChannel, cfg.RedisAddr)
			<-ctx.Done()
			return nil
		},
	}
}

func formatMessage(m events.Message) string {
	ts := color.HiBlackString(m.At.Local().Format("15:04:05"))
	name := ""
	if m.Item != nil {
		name = formatItem(*m.Item)
	}
	switch ingest.EventKind(m.Kind) {
	case ingest.EventCommitted:
		return fmt.Sprintf("%s %s %s", ts, color.GreenString("added  "), name)
	case ingest.EventMerged:
		return fmt.Sprintf("%s %s %s", ts, color.CyanString("merged "), name)
	case ingest.EventProposalOpened:
		if m.Proposal != nil {
			name = formatItem(m.Proposal.Candidate) + " ~ " + formatItem(m.Proposal.Existing)
		}
		return fmt.Sprintf("%s %s %s", ts, color.YellowString("ask    "), name)
	case ingest.EventProposalResolved:
		return fmt.Sprintf("%s %s %s", ts, color.YellowString("answer "), m.Decision)
	case ingest.EventDropped:
		return fmt.Sprintf("%s %s %s", ts, color.RedString("dropped"), m.Error)
	case ingest.EventNormalizationFallback:
		return fmt.Sprintf("%s %s %s %s", ts, color.MagentaString("raw    "), name, color.HiBlackString(m.Error))
	default:
		return fmt.Sprintf("%s %s %s", ts, m.Kind, name)
	}
}
