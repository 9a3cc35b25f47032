// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "audio_sentinel"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal    *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	SessionsExpired  prometheus.Counter
	SessionDuration  prometheus.Histogram

	// Chunk metrics
	ChunksProcessed  prometheus.Counter
	ChunkLatency     prometheus.Histogram
	SpeechChunks     prometheus.Counter

	// Alert metrics
	ChunkAlerts   *prometheus.CounterVec
	EventsLogged  *prometheus.CounterVec

	// Inference metrics
	ModalityFailures *prometheus.CounterVec
	InferenceLatency *prometheus.HistogramVec

	// Audio metrics
	AudioFramesReceived  prometheus.Counter
	AudioSamplesBuffered prometheus.Gauge

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of analysis sessions created",
		}, []string{"mode"}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active sessions",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Total number of sessions removed by TTL expiry",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of analysis sessions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		ChunksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Total number of audio chunks scored",
		}),
		ChunkLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_latency_seconds",
			Help:      "Per-chunk pipeline latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		SpeechChunks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_chunks_total",
			Help:      "Total number of chunks with detected speech",
		}),

		ChunkAlerts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_alerts_total",
			Help:      "Total number of per-chunk alerts by level",
		}, []string{"level"}),
		EventsLogged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_logged_total",
			Help:      "Total number of violence events logged by type",
		}, []string{"type"}),

		ModalityFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modality_failures_total",
			Help:      "Total number of inference calls degraded to absent modality",
		}, []string{"modality"}),
		InferenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_seconds",
			Help:      "Inference call latency by modality in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"modality"}),

		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total streamed audio frames received",
		}),
		AudioSamplesBuffered: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_samples_buffered",
			Help:      "Samples currently buffered across streaming sessions",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a new session starting.
func (m *Metrics) RecordSessionStart(mode string) {
	m.SessionsTotal.WithLabelValues(mode).Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session finishing or being torn down.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordSessionExpired records a session removed by the TTL sweeper.
func (m *Metrics) RecordSessionExpired() {
	m.SessionsExpired.Inc()
}

// RecordChunk records one scored chunk and its pipeline latency.
func (m *Metrics) RecordChunk(hasSpeech bool, latencySeconds float64) {
	m.ChunksProcessed.Inc()
	m.ChunkLatency.Observe(latencySeconds)
	if hasSpeech {
		m.SpeechChunks.Inc()
	}
}

// RecordAlert records a per-chunk alert level.
func (m *Metrics) RecordAlert(level string) {
	m.ChunkAlerts.WithLabelValues(level).Inc()
}

// RecordEvent records a logged violence event.
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsLogged.WithLabelValues(eventType).Inc()
}

// RecordModalityFailure records an inference call degraded to absent.
func (m *Metrics) RecordModalityFailure(modality string) {
	m.ModalityFailures.WithLabelValues(modality).Inc()
}

// RecordInference records an inference call latency.
func (m *Metrics) RecordInference(modality string, latencySeconds float64) {
	m.InferenceLatency.WithLabelValues(modality).Observe(latencySeconds)
}

// RecordAudioFrame records one received streaming frame.
func (m *Metrics) RecordAudioFrame() {
	m.AudioFramesReceived.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
