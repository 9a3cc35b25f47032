package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"audio-sentinel-service/internal/analysis"
	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/events"
	"audio-sentinel-service/internal/models"
	"audio-sentinel-service/internal/observability/logging"
	"audio-sentinel-service/internal/observability/metrics"
)

// Session holds the mutable state of one analysis run. All access goes
// through the owning Manager, which serializes chunk submissions per
// session; sessions are never shared by reference across ids.
type Session struct {
	mu sync.Mutex

	ID        string
	Mode      Mode
	state     State
	createdAt time.Time
	expiresAt time.Time

	temporal *analysis.TemporalAnalyzer
	results  []models.ChunkResult
	events   []models.Event

	// Streaming only: partial audio accumulated until one full chunk
	// duration is buffered. Consumed by stride so chunk k starts at k*S
	// in both modes.
	buffer       []float32
	totalSamples int
	nextChunkID  int

	report *models.Report
}

// Manager owns the arena of session states keyed by session id and runs the
// pipeline on their behalf. Safe for many concurrent sessions; submissions
// within one session are serialized by the session's own lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	pipeline  *analysis.Pipeline
	publisher *events.Publisher
	cfg       *config.Configuration
	metrics   *metrics.Metrics
	log       zerolog.Logger

	done chan struct{}
	once sync.Once
}

// NewManager creates a session manager and starts its TTL sweeper.
func NewManager(cfg *config.Configuration, pipeline *analysis.Pipeline, publisher *events.Publisher) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		pipeline:  pipeline,
		publisher: publisher,
		cfg:       cfg,
		metrics:   metrics.Default,
		log:       logging.WithComponent("session-manager"),
		done:      make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Close stops the TTL sweeper.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })
}

// Ready reports whether the manager accepts new sessions. False once Close
// has been called, so readiness probes fail during shutdown.
func (m *Manager) Ready() bool {
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Create registers a new session with an empty history.
func (m *Manager) Create(mode Mode) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		state:     StateActive,
		createdAt: time.Now(),
		temporal:  analysis.NewTemporalAnalyzer(m.cfg.Temporal),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.metrics.RecordSessionStart(string(mode))
	m.log.Info().Str("sessionId", s.ID).Str("mode", string(mode)).Msg("Session created")
	return s
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// AnalyzeBatch runs the full pipeline over a complete waveform for a batch
// session and returns the finalized report.
func (m *Manager) AnalyzeBatch(ctx context.Context, id string, waveform []float32) (*models.Report, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, ErrSessionFinalized
	}

	logger := logging.WithSession(s.ID, string(s.Mode))
	logger.Info().
		Float64("duration", float64(len(waveform))/float64(m.sampleRate())).
		Msg("Starting batch analysis")

	s.totalSamples = len(waveform)
	err = m.pipeline.RunBatch(ctx, waveform, s.temporal, func(r models.ChunkResult, ev *models.Event) {
		m.accumulate(ctx, s, r, ev)
	})
	if err != nil {
		// An aborted run (typically the client disconnecting mid-analysis)
		// still finalizes: chunks scored so far stay retrievable and the
		// TTL sweeper can reclaim the session.
		m.finalizeLocked(s)
		logger.Warn().Err(err).Msg("Batch analysis aborted, partial results finalized")
		return nil, err
	}

	return m.finalizeLocked(s), nil
}

// SubmitFrame appends streamed audio samples to a streaming session and
// scores every full chunk that becomes available, returning one message per
// scored chunk. Frames smaller than a chunk simply accumulate.
func (m *Manager) SubmitFrame(ctx context.Context, id string, samples []float32) ([]models.StreamMessage, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, ErrSessionFinalized
	}

	if len(s.buffer)+len(samples) > m.cfg.Session.MaxStreamBuffer {
		return nil, ErrStreamBufferFull
	}
	s.buffer = append(s.buffer, samples...)
	s.totalSamples += len(samples)
	m.metrics.RecordAudioFrame()

	chunker := m.pipeline.Chunker()
	chunkSamples := chunker.ChunkSamples()
	strideSamples := chunker.StrideSamples()
	sr := float64(chunker.SampleRate())

	var out []models.StreamMessage
	for len(s.buffer) >= chunkSamples {
		wave := make([]float32, chunkSamples)
		copy(wave, s.buffer[:chunkSamples])
		s.buffer = s.buffer[strideSamples:]

		chunk := models.Chunk{
			ChunkID:   s.nextChunkID,
			StartTime: float64(s.nextChunkID*strideSamples) / sr,
			EndTime:   float64(s.nextChunkID*strideSamples+chunkSamples) / sr,
			Waveform:  wave,
		}
		s.nextChunkID++

		result, ev := m.pipeline.ProcessChunk(ctx, chunk, s.temporal)
		m.accumulate(ctx, s, result, ev)
		out = append(out, streamMessage(result, ev))
	}
	return out, nil
}

// accumulate appends a chunk result (and event, if any) to the session and
// publishes them. Caller holds the session lock.
func (m *Manager) accumulate(ctx context.Context, s *Session, r models.ChunkResult, ev *models.Event) {
	s.results = append(s.results, r)
	if ev != nil {
		s.events = append(s.events, *ev)
		if err := m.publisher.PublishEvent(ctx, s.ID, ev); err != nil {
			m.log.Warn().Err(err).Str("sessionId", s.ID).Msg("Event publish failed")
		}
	}
	if err := m.publisher.PublishChunk(ctx, s.ID, streamMessage(r, ev)); err != nil {
		m.log.Warn().Err(err).Str("sessionId", s.ID).Msg("Chunk alert publish failed")
	}
}

// Finalize closes the session, builds its report, and keeps it retrievable
// until the TTL elapses. Finalizing twice returns the same report.
func (m *Manager) Finalize(id string) (*models.Report, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinalized {
		return s.report, nil
	}
	return m.finalizeLocked(s), nil
}

func (m *Manager) finalizeLocked(s *Session) *models.Report {
	overall := analysis.OverallAlert(s.results)

	stats := models.Statistics{}
	scores := make([]float64, 0, len(s.results))
	for _, r := range s.results {
		scores = append(scores, r.FusedScore)
		if r.Alert > models.AlertSafe {
			stats.ViolenceChunks++
		} else {
			stats.SafeChunks++
		}
	}

	var mean, peakScore float64
	if len(scores) > 0 {
		mean = stat.Mean(scores, nil)
		peakScore = floats.Max(scores)
	}

	snap := s.temporal.Snapshot()
	elapsed := time.Since(s.createdAt)

	events := s.events
	if events == nil {
		events = []models.Event{}
	}
	results := s.results
	if results == nil {
		results = []models.ChunkResult{}
	}

	s.report = &models.Report{
		SessionID:        s.ID,
		ViolenceDetected: overall > models.AlertSafe,
		OverallAlert:     overall,
		Duration:         float64(s.totalSamples) / float64(m.sampleRate()),
		TotalChunks:      len(results),
		Events:           events,
		Chunks:           results,
		Temporal: models.TemporalSummary{
			EscalationTrend: snap.Trend,
			EscalationScore: snap.EscalationScore,
			Prediction:      snap.Prediction,
		},
		Statistics:     stats,
		MeanScore:      mean,
		PeakScore:      peakScore,
		ProcessingTime: elapsed.Seconds(),
	}

	s.state = StateFinalized
	s.expiresAt = time.Now().Add(m.cfg.Session.TTL)
	s.buffer = nil // partial audio is never scored

	m.metrics.RecordSessionEnd(elapsed.Seconds())
	m.log.Info().
		Str("sessionId", s.ID).
		Str("overallAlert", overall.String()).
		Int("totalChunks", len(results)).
		Int("events", len(events)).
		Msg("Session finalized")

	return s.report
}

// Get returns a previously finalized report. Unknown or expired ids yield
// ErrSessionNotFound; active sessions yield ErrSessionActive.
func (m *Manager) Get(id string) (*models.Report, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinalized {
		return nil, ErrSessionActive
	}
	return s.report, nil
}

func (m *Manager) sampleRate() int {
	return m.pipeline.Chunker().SampleRate()
}

// sweep removes finalized sessions whose TTL has elapsed.
func (m *Manager) sweep() {
	ticker := time.NewTicker(m.cfg.Session.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, s := range m.sessions {
				s.mu.Lock()
				expired := s.state == StateFinalized && now.After(s.expiresAt)
				s.mu.Unlock()
				if expired {
					delete(m.sessions, id)
					m.metrics.RecordSessionExpired()
					m.log.Debug().Str("sessionId", id).Msg("Session expired")
				}
			}
			m.mu.Unlock()
		}
	}
}

func streamMessage(r models.ChunkResult, ev *models.Event) models.StreamMessage {
	msg := models.StreamMessage{
		ChunkID:       r.ChunkID,
		FusedScore:    r.FusedScore,
		AcousticScore: r.AcousticScore,
		NLPScore:      r.NLPScore,
		EmotionScore:  r.EmotionScore,
		HasSpeech:     r.HasSpeech,
		Transcript:    r.Transcript,
		Alert:         r.Alert,
		Explanation:   r.Explanation,
		Temporal:      r.Temporal,
	}
	if ev != nil {
		msg.EventType = ev.Type
	}
	return msg
}
