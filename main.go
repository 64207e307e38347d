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

	"github.com/redis/go-redis/v9"

	"its-redmine/internal/config"
	"its-redmine/internal/handler"
	"its-redmine/internal/its"
	"its-redmine/internal/journal"
	"its-redmine/internal/middleware"
	"its-redmine/internal/redmine"
)

// Loads configuration, builds the Redmine facade, sets up HTTP handlers, and starts the HTTP server.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Configuration loading failed: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	})))

	slog.Info("its-redmine starting", "version", handler.Version)

	// Log configuration (sanitized)
	slog.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"authentication_enabled", cfg.EnableAuthentication,
		"plugin", cfg.PluginName,
		"config_file", cfg.ConfigFile,
		"url", cfg.PluginString(its.KeyURL),
		"retry_max_attempts", cfg.RetryMaxAttempts,
		"retry_delay", cfg.RetryDelay,
		"journal_enabled", cfg.RedisURL != "",
		"port", cfg.Port,
	)

	if !cfg.IsConfigured() {
		slog.Error("Redmine URL is not configured, run 'itsctl init' or set REDMINE_URL", "plugin", cfg.PluginName)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	facadeOpts := []its.Option{
		its.WithMaxAttempts(cfg.RetryMaxAttempts),
		its.WithRetryDelay(cfg.RetryDelay),
		its.WithLogger(slog.Default()),
	}

	// Optional Redis/Valkey journal
	var journalReader handler.JournalReader
	var journalPinger handler.Pinger
	if cfg.RedisURL != "" {
		slog.Info("Initializing Redis connection...")
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to parse Redis URL", "error", err)
			panic(err)
		}
		rdb := redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()

		redisJournal := journal.NewRedisJournal(rdb, cfg.PluginName, cfg.JournalTTL, slog.Default())
		facadeOpts = append(facadeOpts, its.WithJournal(redisJournal))
		journalReader = redisJournal
		journalPinger = redisJournal
	}

	factory := its.NewClientFactory(redmine.Options{
		Timeout:       cfg.RedmineTimeout,
		SkipTLSVerify: cfg.RedmineSkipTLS,
		Logger:        slog.Default(),
	})
	facade := its.NewFacade(cfg, factory, facadeOpts...)

	responseWriter := handler.NewResponseWriter()
	issueHandler := handler.NewIssueHandler(facade, journalReader, responseWriter, slog.Default())
	healthHandler := handler.NewHealthHandler(facade, journalPinger)

	mux := http.NewServeMux()

	// Health endpoints (no authentication) - Kubernetes probes with security headers
	mux.Handle("GET /health", middleware.SecurityHeadersMiddleware()(http.HandlerFunc(healthHandler.HandleHealth)))
	mux.Handle("GET /ready", middleware.SecurityHeadersMiddleware()(http.HandlerFunc(healthHandler.HandleReady)))

	// Issue endpoints with security, logging, and authentication middleware
	protect := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.SecurityHeadersMiddleware(),
			middleware.LoggingMiddleware(slog.Default()),
			middleware.AuthenticationMiddleware(middleware.AuthSettings{
				Enabled: cfg.EnableAuthentication,
				Token:   cfg.BearerToken,
			}, slog.Default()),
		)
	}
	mux.Handle("GET /healthcheck", protect(issueHandler.HandleHealthCheck))
	mux.Handle("GET /issues/{id}", protect(issueHandler.HandleExists))
	mux.Handle("POST /issues/{id}/comments", protect(issueHandler.HandleComment))
	mux.Handle("POST /issues/{id}/links", protect(issueHandler.HandleLink))
	mux.Handle("POST /issues/{id}/actions", protect(issueHandler.HandleAction))
	mux.Handle("GET /issues/{id}/journal", protect(issueHandler.HandleJournal))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Server listening", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server error", "error", err)
	}
}
