package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AngelCh415/leadboard/internal/config"
	"github.com/AngelCh415/leadboard/internal/httpx"
	"github.com/AngelCh415/leadboard/internal/session"
	"github.com/AngelCh415/leadboard/internal/telemetry"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	src, closeSrc, err := session.OpenSource(cfg, logger)
	if err != nil {
		logger.Error("record source error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeSrc()

	tel := telemetry.New()
	latest := &httpx.Latest{}
	sess := session.New(src,
		session.WithLogger(logger),
		session.WithSink(latest),
		session.WithTelemetry(tel))

	// Warm the cache; a failure here is retried through POST /session/load.
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
	if _, err := sess.Load(ctx); err != nil {
		logger.Warn("initial lead load failed", slog.String("source", cfg.RecordSource), slog.String("err", err.Error()))
	}
	cancel()

	r := httpx.NewRouter(logger, sess, latest, tel, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("source", cfg.RecordSource))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
