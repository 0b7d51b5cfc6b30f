package main

import (
	"context"
	"fmt"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/config"
	"smart-shopping-list/internal/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	User  string
	Store string
}

// NewRootCommand creates the root command of the smartlist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "smartlist",
		Short:         "Shared shopping lists with AI item normalization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.User, "user", "cli", "user id the commands act as")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "list store backend (sqlite|file), overrides STORE_BACKEND")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewSmartAddCommand(opts))
	cmd.AddCommand(NewRecipeCommand(opts))
	cmd.AddCommand(NewUsageCommand(opts))
	cmd.AddCommand(NewMetricsCleanupCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.Store != "" {
		switch opts.Store {
		case config.BackendSQLite, config.BackendFile:
			cfg.StoreBackend = opts.Store
		default:
			return nil, fmt.Errorf("unknown store %q", opts.Store)
		}
	}
	return cfg, nil
}

// openApp loads configuration and bootstraps the application. The returned
// cleanup closes the app and flushes the logger.
func openApp(ctx context.Context, opts *RootOptions) (*app.App, *config.Config, *logger.Logger, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	a, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to close application", "error", err)
		}
		log.Sync()
	}
	return a, cfg, log, cleanup, nil
}
