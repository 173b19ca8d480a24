package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"socialFeed/cmd/app"
	"socialFeed/internal/config"
	handlers "socialFeed/internal/handler"
	"socialFeed/internal/middleware"
	"socialFeed/internal/service"
)

func main() {
	// setting up config
	cfg := config.LoadConfig()

	if cfg.JWTSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY не установлен в .env файле")
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeStore, repo, services := app.App(ctx, cfg, logger)
	defer closeStore()

	handler := handlers.NewHandlers(repo, services, cfg, logger)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(handler, services.Auth, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go awaitShutdown(ctx, server, 10*time.Second, logger)

	// Starting the server
	logger.Info("сервер запущен", "addr", addr, "driver", cfg.StoreDriver)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// awaitShutdown stops the server once ctx is done, giving in-flight
// requests up to timeout to finish.
func awaitShutdown(ctx context.Context, server shutdowner, timeout time.Duration, logger *slog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки сервера", "error", err)
		return
	}
	logger.Info("сервер остановлен")
}

func newRouter(h *handlers.Handlers, gate service.AuthGate, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", h.HomeHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(mux.MiddlewareFunc(middleware.AuthMiddleware(gate)))
	protected.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}/like", h.ToggleLike).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}/comment", h.AddComment).Methods(http.MethodPost)

	return middleware.Chain(
		router,
		middleware.RecoverMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware,
	)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
