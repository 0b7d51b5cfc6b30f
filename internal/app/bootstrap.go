package app

import (
	"context"
	"fmt"
	"path/filepath"

	"smart-shopping-list/internal/clipper"
	"smart-shopping-list/internal/config"
	"smart-shopping-list/internal/database"
	"smart-shopping-list/internal/events"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/metrics"
	"smart-shopping-list/internal/normalizer"
	"smart-shopping-list/internal/shopping"
	"smart-shopping-list/internal/storage"
)

// Bootstrap wires the whole application from configuration: database,
// list store, LLM clients, normalizer, metrics, event listeners and the
// ingestion engine. The caller owns the returned App and must Close it.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	var closers []func() error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 1. Database (metrics and chat sessions always live here)
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize database: %w", err))
	}
	closers = append(closers, db.Close)

	// 2. List store
	var store shopping.Store
	dataPath := filepath.Dir(cfg.DatabasePath)
	switch cfg.StoreBackend {
	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.FileStorePath)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize file store: %w", err))
		}
		store = fs
		dataPath = cfg.FileStorePath
	default:
		store = shopping.NewRepository(db.SQL)
	}

	// 3. LLM
	textGen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize %s client: %w", cfg.LLMProvider, err))
	}
	cached, err := llm.NewCachedTextGenerator(textGen, cfg.LLMCachePath)
	if err != nil {
		if c, ok := textGen.(llm.Closer); ok {
			_ = c.Close()
		}
		return fail(fmt.Errorf("failed to initialize LLM cache: %w", err))
	}
	closers = append(closers, cached.Close)

	norm := normalizer.NewLLMNormalizer(cached, normalizer.Options{
		Timeout:           cfg.NormalizerTimeout,
		RequestsPerMinute: cfg.NormalizerRPM,
		ConvertUnits:      cfg.NormalizerConvertUnits,
	})

	// 4. Metrics and observers
	metricsStore := metrics.NewStore(db.SQL)
	listeners := []ingest.Listener{events.NewLogListener(log)}
	if cfg.RedisAddr != "" {
		pub, err := events.NewRedisPublisher(ctx, log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub.Close)
		listeners = append(listeners, pub)
	}

	// 5. Engine
	engine := ingest.New(store, norm, ingest.Options{
		WriteRetries: cfg.WriteRetries,
		Logger:       log,
		Usage:        metricsStore,
		Listeners:    listeners,
	})

	a := NewApp(Deps{
		Store:    store,
		Engine:   engine,
		TextGen:  textGen,
		Clipper:  clipper.NewClipper(textGen),
		Metrics:  metricsStore,
		Logger:   log,
		DataPath: dataPath,
		DB:       db.SQL,
	})
	a.closers = closers
	log.Info("application initialized", "provider", cfg.LLMProvider, "store", cfg.StoreBackend, "redis", cfg.RedisAddr != "")
	return a, nil
}
