package analysis

import (
	"fmt"
	"strings"

	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/inference"
	"audio-sentinel-service/internal/models"
)

// Explanation fragments keyed by trend.
var trendExplanations = map[models.Trend]string{
	models.TrendSpike:     "Sudden spike in violence indicators",
	models.TrendRising:    "Violence indicators escalating over time",
	models.TrendSustained: "Sustained aggressive activity detected",
}

// Explanation fragments keyed by dominant signal.
var signalExplanations = map[models.EventType]string{
	models.EventGunshot:           "violent sounds detected",
	models.EventAbusiveSpeech:     "threatening language detected in speech",
	models.EventAggressiveEmotion: "aggressive vocal tone detected",
	models.EventCombined:          "multiple violence indicators present",
}

// DecisionEngine maps fused score and temporal state to a three-level alert
// and generates human-readable justifications. Pure function of its inputs.
type DecisionEngine struct {
	cfg config.DecisionConfig
}

// NewDecisionEngine builds a decision engine from validated thresholds.
func NewDecisionEngine(cfg config.DecisionConfig) *DecisionEngine {
	return &DecisionEngine{cfg: cfg}
}

// Decide evaluates the per-chunk alert rules in fixed order, first match
// wins. All score comparisons are strict.
func (d *DecisionEngine) Decide(fused models.FusedScore, temporal models.TemporalSnapshot) models.AlertLevel {
	switch {
	case fused.Score > d.cfg.CriticalScore:
		return models.AlertCritical
	case temporal.Trend == models.TrendSpike:
		return models.AlertCritical
	case temporal.Trend == models.TrendSustained && fused.Score > d.cfg.SustainedCritical:
		return models.AlertCritical
	case fused.Score > d.cfg.WarningScore:
		return models.AlertWarning
	case temporal.Trend == models.TrendRising:
		return models.AlertWarning
	case temporal.EscalationScore > d.cfg.EscalationWarning:
		return models.AlertWarning
	default:
		return models.AlertSafe
	}
}

// Explain builds the justification string for a chunk from the fixed
// explanation table, keyed by the dominant signal and the trend.
func (d *DecisionEngine) Explain(fused models.FusedScore, temporal models.TemporalSnapshot, alert models.AlertLevel) string {
	if alert == models.AlertSafe {
		return "No violence indicators detected"
	}

	var parts []string
	if fused.Score > d.cfg.WarningScore {
		parts = append(parts, fmt.Sprintf("Elevated violence score (%.2f)", fused.Score))
	}
	if s, ok := trendExplanations[temporal.Trend]; ok {
		parts = append(parts, s)
	}
	if temporal.EscalationScore > d.cfg.EscalationWarning {
		parts = append(parts, fmt.Sprintf("Escalation detected (score: %.2f)", temporal.EscalationScore))
	}
	parts = append(parts, signalExplanations[DominantSignal(fused.Components)])

	return strings.Join(parts, "; ")
}

// DominantSignal determines which modality drives a fused score. Two
// components within comparableMargin of the top are reported as combined.
func DominantSignal(c models.ComponentScores) models.EventType {
	const comparableMargin = 0.1

	top := c.Acoustic
	kind := models.EventGunshot
	if c.NLP > top {
		top = c.NLP
		kind = models.EventAbusiveSpeech
	}
	if c.Emotion > top {
		top = c.Emotion
		kind = models.EventAggressiveEmotion
	}

	comparable := 0
	for _, s := range []float64{c.Acoustic, c.NLP, c.Emotion} {
		if top-s < comparableMargin {
			comparable++
		}
	}
	if comparable > 1 {
		return models.EventCombined
	}
	return kind
}

// refineAcousticType resolves an acoustic-dominant chunk's event type from
// its detected sound classes: gunfire-family detections report as gunshot,
// any other violent class as combined.
func refineAcousticType(events []models.AcousticEvent) models.EventType {
	top := inference.TopViolentClass(events)
	if top != "" && strings.Contains(strings.ToLower(top), "gun") {
		return models.EventGunshot
	}
	return models.EventCombined
}

// ClassifyEvent returns an Event when the fused score crosses the event
// threshold, nil otherwise. The event confidence is the fused score itself.
func (d *DecisionEngine) ClassifyEvent(
	chunk models.Chunk,
	vector models.FeatureVector,
	fused models.FusedScore,
	temporal models.TemporalSnapshot,
	alert models.AlertLevel,
) *models.Event {
	if fused.Score <= d.cfg.WarningScore {
		return nil
	}
	kind := DominantSignal(fused.Components)
	if kind == models.EventGunshot {
		kind = refineAcousticType(vector.AcousticEvents)
	}
	return &models.Event{
		Start:       chunk.StartTime,
		End:         chunk.EndTime,
		Type:        kind,
		Confidence:  fused.Score,
		Alert:       alert,
		Explanation: d.Explain(fused, temporal, alert),
		Transcript:  vector.Transcript,
	}
}

// OverallAlert aggregates per-chunk alerts: the most severe level observed
// across the session.
func OverallAlert(results []models.ChunkResult) models.AlertLevel {
	overall := models.AlertSafe
	for _, r := range results {
		overall = overall.Max(r.Alert)
	}
	return overall
}
