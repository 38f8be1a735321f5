package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/groqgate/groqgate/internal/chat"
	"github.com/groqgate/groqgate/internal/config"
	"github.com/groqgate/groqgate/internal/cors"
	"github.com/groqgate/groqgate/internal/httpx"
	"github.com/groqgate/groqgate/internal/logging"
	"github.com/groqgate/groqgate/internal/middleware"
	"github.com/groqgate/groqgate/internal/proxy"
)

func main() {
	configPath := flag.String("config", "", "path to optional yaml config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newRouter(cfg, logger),
	}

	go func() {
		logger.Info("groqgate listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("mode", cfg.Mode),
			zap.String("upstream", cfg.UpstreamURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

// newRouter mounts the health check, the CORS/preflight layer, and whichever
// request pipeline the deployment mode selects.
func newRouter(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Middleware(cfg.AllowedOrigins))

	// Health bypasses every allowlist.
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	switch cfg.Mode {
	case config.ModeChat:
		r.Post("/chat", chat.New(cfg, logger).ServeHTTP)
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteError(w, http.StatusNotFound, "Not found")
		})
	default:
		r.Handle("/*", proxy.New(cfg, logger))
	}

	return r
}
