package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/config"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/telegram"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatalf("Failed to load config: TELEGRAM_BOT_TOKEN environment variable not set")
	}

	zl, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage, LLM clients and the ingestion engine
	a, err := app.Bootstrap(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to bootstrap application", "error", err)
	}
	defer a.Close()

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, a, telegram.NewSessionRepository(a.SQL()), zl)
	if err != nil {
		zl.Fatal("Failed to initialize Telegram Bot", "error", err)
	}
	a.Engine().AddListener(bot)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })

	if cfg.TelegramWebhookURL == "" {
		zl.Info("No webhook configured, polling for updates")
		g.Go(func() error { return bot.Poll(gctx) })
	} else {
		// 4. Webhook server with graceful shutdown
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		mux := http.NewServeMux()
		bot.RegisterHandlers(mux)
		srv := &http.Server{Addr: ":" + port, Handler: mux}

		g.Go(func() error {
			zl.Info("Telegram Bot Server listening", "port", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zl.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("Server stopped with error", "error", err)
	}
	zl.Info("Server exiting")
}
