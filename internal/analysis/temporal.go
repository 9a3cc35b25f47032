package analysis

import (
	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/models"
)

// Temporal predictions keyed by trend.
const (
	predictionEscalating   = "violence likely to escalate"
	predictionDeescalating = "situation de-escalating"
	predictionStable       = "stable"
)

// TemporalAnalyzer maintains a bounded sliding window of the most recent
// fused scores for one session and classifies the trend on every update.
// It is owned by a single session and is not safe for concurrent use; the
// session manager serializes submissions.
type TemporalAnalyzer struct {
	cfg    config.TemporalConfig
	window []float64
}

// NewTemporalAnalyzer builds an analyzer with an empty window.
func NewTemporalAnalyzer(cfg config.TemporalConfig) *TemporalAnalyzer {
	return &TemporalAnalyzer{
		cfg:    cfg,
		window: make([]float64, 0, cfg.WindowSize),
	}
}

// Reset clears the window for a new analysis session.
func (t *TemporalAnalyzer) Reset() {
	t.window = t.window[:0]
}

// AddScore appends a fused score, evicting the oldest when the window is
// full, and returns the recomputed snapshot.
func (t *TemporalAnalyzer) AddScore(score float64) models.TemporalSnapshot {
	if len(t.window) == t.cfg.WindowSize {
		copy(t.window, t.window[1:])
		t.window = t.window[:len(t.window)-1]
	}
	t.window = append(t.window, score)
	return t.Snapshot()
}

// Snapshot classifies the current window without mutating it.
//
// The reported trend is the first match in priority order spike >
// sustained > rising > falling > stable, but the escalation score combines
// all simultaneously-true conditions regardless of which trend wins.
func (t *TemporalAnalyzer) Snapshot() models.TemporalSnapshot {
	n := len(t.window)

	var isSpike, isSustained, isRising, isFalling bool

	if n >= 2 {
		current := t.window[n-1]
		previous := t.window[n-2]
		isSpike = current > t.cfg.SpikeHigh && previous < t.cfg.SpikeLowBefore
	}

	above := 0
	for _, s := range t.window {
		if s > t.cfg.SustainedThreshold {
			above++
		}
	}
	isSustained = above >= t.cfg.SustainedCount

	if n >= 2 {
		monotonic := true
		for i := 1; i < n; i++ {
			if t.window[i] < t.window[i-1] {
				monotonic = false
				break
			}
		}
		isRising = monotonic && t.window[n-1]-t.window[0] > t.cfg.RisingDelta
		isFalling = t.window[n-1] < t.window[0]-t.cfg.FallingDelta
	}

	escalation := 0.0
	if isSpike {
		escalation += 0.4
	}
	if isRising {
		escalation += 0.3
	}
	if isSustained {
		escalation += 0.3
	}
	if escalation > 1.0 {
		escalation = 1.0
	}

	var trend models.Trend
	switch {
	case isSpike:
		trend = models.TrendSpike
	case isSustained:
		trend = models.TrendSustained
	case isRising:
		trend = models.TrendRising
	case isFalling:
		trend = models.TrendFalling
	default:
		trend = models.TrendStable
	}

	var prediction string
	switch trend {
	case models.TrendRising, models.TrendSpike:
		prediction = predictionEscalating
	case models.TrendFalling:
		prediction = predictionDeescalating
	default:
		prediction = predictionStable
	}

	scores := make([]float64, n)
	copy(scores, t.window)

	return models.TemporalSnapshot{
		Trend:           trend,
		EscalationScore: escalation,
		Prediction:      prediction,
		WindowScores:    scores,
	}
}
