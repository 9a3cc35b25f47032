package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SENTINEL_CONFIG", "HTTP_PORT", "LOG_LEVEL", "LOG_FORMAT", "METRICS_PORT",
		"TRANSCRIBER_PROVIDER", "TRANSCRIBER_LANGUAGE_CODE", "SERVICE_PRINCIPAL",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_CHUNK", "KAFKA_TOPIC_EVENT",
		"FUSION_W_ACOUSTIC", "FUSION_W_NLP", "FUSION_W_EMOTION",
		"TEMPORAL_WINDOW_SIZE", "EXTRACT_WORKERS", "SESSION_TTL", "SESSION_SWEEP_INTERVAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Chunker.SampleRate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", cfg.Chunker.SampleRate)
	}
	if cfg.Chunker.ChunkDuration != 2.5 {
		t.Errorf("expected chunk duration 2.5, got %v", cfg.Chunker.ChunkDuration)
	}
	if cfg.Chunker.Stride != 2.0 {
		t.Errorf("expected stride 2.0, got %v", cfg.Chunker.Stride)
	}
	if cfg.Fusion.AcousticWeight != 0.5 || cfg.Fusion.NLPWeight != 0.3 || cfg.Fusion.EmotionWeight != 0.2 {
		t.Errorf("unexpected default fusion weights: %+v", cfg.Fusion)
	}
	if cfg.Temporal.WindowSize != 5 {
		t.Errorf("expected window size 5, got %d", cfg.Temporal.WindowSize)
	}
	if cfg.Inference.TranscriberProvider != "mock" {
		t.Errorf("expected default transcriber provider 'mock', got %s", cfg.Inference.TranscriberProvider)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("expected session TTL 30m, got %v", cfg.Session.TTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("FUSION_W_ACOUSTIC", "0.6")
	t.Setenv("FUSION_W_NLP", "0.25")
	t.Setenv("FUSION_W_EMOTION", "0.15")
	t.Setenv("TEMPORAL_WINDOW_SIZE", "8")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("SESSION_TTL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Service.HTTPPort)
	}
	if cfg.Fusion.AcousticWeight != 0.6 {
		t.Errorf("expected acoustic weight 0.6, got %v", cfg.Fusion.AcousticWeight)
	}
	if cfg.Temporal.WindowSize != 8 {
		t.Errorf("expected window size 8, got %d", cfg.Temporal.WindowSize)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "kafka-1:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Session.TTL != 10*time.Minute {
		t.Errorf("expected TTL 10m, got %v", cfg.Session.TTL)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"weights do not sum to 1", func(c *Configuration) { c.Fusion.AcousticWeight = 0.9 }},
		{"negative weight", func(c *Configuration) {
			c.Fusion.AcousticWeight = 1.5
			c.Fusion.NLPWeight = -0.3
			c.Fusion.EmotionWeight = -0.2
		}},
		{"zero window size", func(c *Configuration) { c.Temporal.WindowSize = 0 }},
		{"negative window size", func(c *Configuration) { c.Temporal.WindowSize = -1 }},
		{"zero sample rate", func(c *Configuration) { c.Chunker.SampleRate = 0 }},
		{"stride exceeds duration", func(c *Configuration) { c.Chunker.Stride = 3.0 }},
		{"min duration too large", func(c *Configuration) { c.Chunker.MinDuration = 5.0 }},
		{"zero workers", func(c *Configuration) { c.Session.ExtractWorkers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_WeightsSumValidatedAtStartup(t *testing.T) {
	clearEnv(t)
	t.Setenv("FUSION_W_ACOUSTIC", "0.8")

	if _, err := Load(); err == nil {
		t.Error("expected error for weights not summing to 1.0")
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)

	overlay := `
fusion:
  acousticWeight: 0.4
  nlpWeight: 0.4
  emotionWeight: 0.2
temporal:
  windowSize: 7
`
	path := t.TempDir() + "/overlay.yaml"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SENTINEL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fusion.AcousticWeight != 0.4 || cfg.Fusion.NLPWeight != 0.4 {
		t.Errorf("overlay weights not applied: %+v", cfg.Fusion)
	}
	if cfg.Temporal.WindowSize != 7 {
		t.Errorf("expected window size 7, got %d", cfg.Temporal.WindowSize)
	}
	// Untouched sections keep defaults.
	if cfg.Chunker.ChunkDuration != 2.5 {
		t.Errorf("expected chunk duration default 2.5, got %v", cfg.Chunker.ChunkDuration)
	}
}
