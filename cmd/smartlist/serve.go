package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"smart-shopping-list/internal/httpapi"
	"smart-shopping-list/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand runs the ingestion engine, the HTTP API and, when a bot
// token is configured, the Telegram bot.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion engine, HTTP API and Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, cfg, log, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if cfg.LogMode == "prod" || cfg.LogMode == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := httpapi.NewRouter(httpapi.RouterConfig{App: a, Logger: log, JWTSecret: cfg.APIJWTSecret})
			if cfg.APIJWTSecret == "" {
				log.Warn("API_JWT_SECRET not set, HTTP API authentication is disabled")
			}

			g, ctx := errgroup.WithContext(ctx)

			if cfg.TelegramBotToken != "" {
				bot, err := telegram.NewBot(cfg, a, telegram.NewSessionRepository(a.SQL()), log)
				if err != nil {
					return err
				}
				a.Engine().AddListener(bot)
				if cfg.TelegramWebhookURL != "" {
					router.POST("/webhook", gin.WrapF(bot.WebhookHandler()))
				} else {
					g.Go(func() error { return bot.Poll(ctx) })
				}
			}

			g.Go(func() error { return a.Run(ctx) })
			g.Go(func() error { return httpapi.Serve(ctx, cfg.HTTPAddr, router, log) })

			err = g.Wait()
			log.Info("server exiting")
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
