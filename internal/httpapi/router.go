package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	App       *app.App
	Logger    *logger.Logger
	JWTSecret string
}

// NewRouter builds the gin engine with every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	h := NewHandler(cfg.App, cfg.Logger)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	// Public
	router.GET("/healthz", h.Health)

	// Protected
	api := router.Group("/api")
	api.Use(RequireAuth(cfg.JWTSecret, cfg.Logger))
	{
		api.GET("/lists", h.ListLists)
		api.POST("/lists", h.CreateList)
		api.GET("/lists/:id", h.GetList)
		api.DELETE("/lists/:id", h.DeleteList)

		api.POST("/lists/:id/items", h.AddItem)
		api.PUT("/lists/:id/items/:itemId", h.UpdateItem)
		api.POST("/lists/:id/items/:itemId/toggle", h.ToggleItem)
		api.DELETE("/lists/:id/items/:itemId", h.RemoveItem)

		api.POST("/lists/:id/smart-add", h.SmartAdd)
		api.POST("/lists/:id/recipes", h.AddRecipe)

		api.GET("/proposal", h.GetProposal)
		api.POST("/proposal", h.ResolveProposal)

		api.GET("/usage", h.Usage)
	}
	return router
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
