package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audio-sentinel-service/internal/app"
	"audio-sentinel-service/internal/config"
	sentinelhttp "audio-sentinel-service/internal/http"
	"audio-sentinel-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	obsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, application.Sessions.Ready)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      sentinelhttp.NewRouter(application),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		application.Logger.Info().Str("addr", apiServer.Addr).Msg("API server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api serve failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error().Err(err).Msg("API server shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}
