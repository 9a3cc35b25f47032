// Package config loads and validates service configuration.
//
// Precedence: built-in defaults, then an optional YAML overlay file
// (SENTINEL_CONFIG), then environment variables. Validation failures are
// fatal at startup, never at request time.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	HTTPPort string `yaml:"httpPort"`
}

// ChunkerConfig holds audio windowing parameters.
type ChunkerConfig struct {
	SampleRate    int     `yaml:"sampleRate"`
	ChunkDuration float64 `yaml:"chunkDuration"` // seconds
	Stride        float64 `yaml:"stride"`        // seconds
	MinDuration   float64 `yaml:"minDuration"`   // trailing chunks shorter than this are dropped
}

// FusionConfig holds the score fusion weights. Weights must sum to 1.0.
type FusionConfig struct {
	AcousticWeight float64 `yaml:"acousticWeight"`
	NLPWeight      float64 `yaml:"nlpWeight"`
	EmotionWeight  float64 `yaml:"emotionWeight"`
}

// TemporalConfig holds sliding-window trend detection parameters.
type TemporalConfig struct {
	WindowSize         int     `yaml:"windowSize"`
	SpikeHigh          float64 `yaml:"spikeHigh"`
	SpikeLowBefore     float64 `yaml:"spikeLowBefore"`
	SustainedThreshold float64 `yaml:"sustainedThreshold"`
	SustainedCount     int     `yaml:"sustainedCount"`
	RisingDelta        float64 `yaml:"risingDelta"`
	FallingDelta       float64 `yaml:"fallingDelta"`
}

// DecisionConfig holds alert thresholds for the decision engine.
type DecisionConfig struct {
	CriticalScore     float64 `yaml:"criticalScore"`
	SustainedCritical float64 `yaml:"sustainedCritical"`
	WarningScore      float64 `yaml:"warningScore"`
	EscalationWarning float64 `yaml:"escalationWarning"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	SweepInterval   time.Duration `yaml:"sweepInterval"`
	ExtractWorkers  int           `yaml:"extractWorkers"`
	MaxStreamBuffer int           `yaml:"maxStreamBuffer"` // samples
}

// InferenceConfig selects implementations for the inference collaborators.
type InferenceConfig struct {
	TranscriberProvider string  `yaml:"transcriberProvider"` // mock | google
	LanguageCode        string  `yaml:"languageCode"`
	SpeechThreshold     float64 `yaml:"speechThreshold"` // speech probability above this means has_speech
}

// KafkaConfig holds alert publishing settings.
type KafkaConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Brokers    []string `yaml:"brokers"`
	TopicChunk string   `yaml:"topicChunk"`
	TopicEvent string   `yaml:"topicEvent"`
	Principal  string   `yaml:"principal"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"` // json | console
	MetricsPort string `yaml:"metricsPort"`
}

// Configuration is the root configuration object. It is passed explicitly
// to the components that need it and never mutated after Load.
type Configuration struct {
	Service       ServiceConfig       `yaml:"service"`
	Chunker       ChunkerConfig       `yaml:"chunker"`
	Fusion        FusionConfig        `yaml:"fusion"`
	Temporal      TemporalConfig      `yaml:"temporal"`
	Decision      DecisionConfig      `yaml:"decision"`
	Session       SessionConfig       `yaml:"session"`
	Inference     InferenceConfig     `yaml:"inference"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default returns the built-in configuration.
func Default() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Name:     "audio-sentinel-service",
			HTTPPort: "8080",
		},
		Chunker: ChunkerConfig{
			SampleRate:    16000,
			ChunkDuration: 2.5,
			Stride:        2.0,
			MinDuration:   1.0,
		},
		Fusion: FusionConfig{
			AcousticWeight: 0.5,
			NLPWeight:      0.3,
			EmotionWeight:  0.2,
		},
		Temporal: TemporalConfig{
			WindowSize:         5,
			SpikeHigh:          0.85,
			SpikeLowBefore:     0.4,
			SustainedThreshold: 0.5,
			SustainedCount:     3,
			RisingDelta:        0.15,
			FallingDelta:       0.2,
		},
		Decision: DecisionConfig{
			CriticalScore:     0.85,
			SustainedCritical: 0.7,
			WarningScore:      0.3,
			EscalationWarning: 0.3,
		},
		Session: SessionConfig{
			TTL:             30 * time.Minute,
			SweepInterval:   time.Minute,
			ExtractWorkers:  4,
			MaxStreamBuffer: 16000 * 60, // one minute of buffered audio
		},
		Inference: InferenceConfig{
			TranscriberProvider: "mock",
			LanguageCode:        "en-US",
			SpeechThreshold:     0.5,
		},
		Kafka: KafkaConfig{
			Enabled:    false,
			TopicChunk: "sentinel.alert.chunk",
			TopicEvent: "sentinel.alert.event",
			Principal:  "svc-audio-sentinel",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: "9090",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML overlay
// named by SENTINEL_CONFIG, and environment variables, then validates it.
func Load() (*Configuration, error) {
	cfg := Default()

	if path := os.Getenv("SENTINEL_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open overlay %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("config: decode overlay %s: %w", path, err)
	}
	return nil
}

func (c *Configuration) applyEnv() {
	c.Service.HTTPPort = envOrDefault("HTTP_PORT", c.Service.HTTPPort)
	c.Observability.LogLevel = envOrDefault("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = envOrDefault("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsPort = envOrDefault("METRICS_PORT", c.Observability.MetricsPort)
	c.Inference.TranscriberProvider = envOrDefault("TRANSCRIBER_PROVIDER", c.Inference.TranscriberProvider)
	c.Inference.LanguageCode = envOrDefault("TRANSCRIBER_LANGUAGE_CODE", c.Inference.LanguageCode)
	c.Kafka.Principal = envOrDefault("SERVICE_PRINCIPAL", c.Kafka.Principal)

	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		c.Kafka.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	c.Kafka.TopicChunk = envOrDefault("KAFKA_TOPIC_CHUNK", c.Kafka.TopicChunk)
	c.Kafka.TopicEvent = envOrDefault("KAFKA_TOPIC_EVENT", c.Kafka.TopicEvent)

	c.Fusion.AcousticWeight = envFloat("FUSION_W_ACOUSTIC", c.Fusion.AcousticWeight)
	c.Fusion.NLPWeight = envFloat("FUSION_W_NLP", c.Fusion.NLPWeight)
	c.Fusion.EmotionWeight = envFloat("FUSION_W_EMOTION", c.Fusion.EmotionWeight)

	c.Temporal.WindowSize = envInt("TEMPORAL_WINDOW_SIZE", c.Temporal.WindowSize)
	c.Session.ExtractWorkers = envInt("EXTRACT_WORKERS", c.Session.ExtractWorkers)
	c.Session.TTL = envDuration("SESSION_TTL", c.Session.TTL)
	c.Session.SweepInterval = envDuration("SESSION_SWEEP_INTERVAL", c.Session.SweepInterval)
}

// Validate enforces invariants that must hold before the service starts.
func (c *Configuration) Validate() error {
	sum := c.Fusion.AcousticWeight + c.Fusion.NLPWeight + c.Fusion.EmotionWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("config: fusion weights must sum to 1.0, got %.4f", sum)
	}
	if c.Fusion.AcousticWeight < 0 || c.Fusion.NLPWeight < 0 || c.Fusion.EmotionWeight < 0 {
		return fmt.Errorf("config: fusion weights must be non-negative")
	}
	if c.Temporal.WindowSize <= 0 {
		return fmt.Errorf("config: temporal window size must be > 0, got %d", c.Temporal.WindowSize)
	}
	if c.Chunker.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be > 0, got %d", c.Chunker.SampleRate)
	}
	if c.Chunker.ChunkDuration <= 0 || c.Chunker.Stride <= 0 {
		return fmt.Errorf("config: chunk duration and stride must be > 0")
	}
	if c.Chunker.Stride > c.Chunker.ChunkDuration {
		return fmt.Errorf("config: stride %.2fs exceeds chunk duration %.2fs",
			c.Chunker.Stride, c.Chunker.ChunkDuration)
	}
	if c.Chunker.MinDuration <= 0 || c.Chunker.MinDuration > c.Chunker.ChunkDuration {
		return fmt.Errorf("config: min chunk duration must be in (0, chunk duration]")
	}
	if c.Session.ExtractWorkers <= 0 {
		return fmt.Errorf("config: extract workers must be > 0, got %d", c.Session.ExtractWorkers)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
