// GPTChat - conversational relay server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/nsharma/gptchat/internal/api"
	"github.com/nsharma/gptchat/internal/config"
	"github.com/nsharma/gptchat/internal/middleware"
	"github.com/nsharma/gptchat/internal/proxy"
	"github.com/nsharma/gptchat/internal/relay"
	"github.com/nsharma/gptchat/internal/session"
	"github.com/nsharma/gptchat/internal/store"
	"github.com/nsharma/gptchat/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	persister, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := persister.Close(); closeErr != nil {
			slog.Error("Failed to close persister", "error", closeErr)
		}
	}()

	if err := persister.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	chats, err := session.New(context.Background(), persister)
	if err != nil {
		slog.Error("Failed to hydrate chat state", "error", err)
		os.Exit(1)
	}
	slog.Info("Chat state hydrated")

	// The relay never talks to the upstream directly; it goes through our
	// own proxy endpoint unless an external one is configured.
	proxyURL := cfg.RelayProxyURL
	if proxyURL == "" {
		proxyURL = "http://127.0.0.1:" + cfg.Port + "/api/proxy"
	}
	relayClient := relay.NewClient(relay.Config{
		ProxyURL: proxyURL,
		MinDelay: cfg.RelayMinDelay,
		MaxDelay: cfg.RelayMaxDelay,
		Timeout:  cfg.UpstreamTimeout + cfg.RelayMaxDelay,
	}, logger)

	// Initialize handlers.
	proxyHandler := proxy.NewHandler(cfg.UpstreamURL, cfg.UpstreamTimeout)
	chatHandler := api.NewChatHandler(chats, relayClient)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	proxyHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + cfg.RelayMaxDelay + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
