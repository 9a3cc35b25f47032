// Package app holds process-wide state for the service.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"audio-sentinel-service/internal/analysis"
	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/events"
	"audio-sentinel-service/internal/inference"
	googlestt "audio-sentinel-service/internal/inference/google"
	"audio-sentinel-service/internal/inference/mock"
	"audio-sentinel-service/internal/observability/logging"
	"audio-sentinel-service/internal/session"
)

// Application wires configuration, the inference suite, the pipeline, the
// session manager and the alert publisher together.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
	Sessions    *session.Manager
	Publisher   *events.Publisher

	closers []func() error
}

// New constructs a new Application from the provided configuration.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	suite, err := a.buildSuite(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.Publisher = events.New(&events.Config{
		Enabled:    cfg.Kafka.Enabled,
		Brokers:    cfg.Kafka.Brokers,
		TopicChunk: cfg.Kafka.TopicChunk,
		TopicEvent: cfg.Kafka.TopicEvent,
		Principal:  cfg.Kafka.Principal,
	})
	a.closers = append(a.closers, a.Publisher.Close)

	pipeline := analysis.NewPipeline(cfg, suite)
	a.Sessions = session.NewManager(cfg, pipeline, a.Publisher)

	a.Logger.Info().
		Str("transcriberProvider", cfg.Inference.TranscriberProvider).
		Msg("Audio sentinel application created")
	return a, nil
}

// buildSuite assembles the inference collaborators. The mock suite is the
// default; the Google transcriber replaces the mock transcriber when
// configured, while the other modalities keep their local engines.
func (a *Application) buildSuite(ctx context.Context, cfg *config.Configuration) (inference.Suite, error) {
	suite := mock.NewSuite()

	if cfg.Inference.TranscriberProvider == "google" {
		tr, err := googlestt.NewTranscriber(ctx, cfg.Inference.LanguageCode, cfg.Chunker.SampleRate)
		if err != nil {
			return inference.Suite{}, err
		}
		suite.Transcriber = tr
		a.closers = append(a.closers, tr.Close)
	}
	return suite, nil
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Audio sentinel service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Audio sentinel service shutting down")
	a.Sessions.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Logger.Error().Err(err).Msg("Error during shutdown")
		}
	}
}
