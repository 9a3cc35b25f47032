// Package models defines the data structures flowing through the
// violence-risk analysis pipeline.
package models

import (
	"encoding/json"
	"fmt"
)

// AlertLevel is an ordered severity scale. Higher values are more severe,
// so levels can be compared and aggregated with max.
type AlertLevel int

const (
	AlertSafe AlertLevel = iota
	AlertWarning
	AlertCritical
)

// String returns the string representation of the alert level.
func (a AlertLevel) String() string {
	switch a {
	case AlertSafe:
		return "Safe"
	case AlertWarning:
		return "Warning"
	case AlertCritical:
		return "Critical"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", a)
	}
}

// MarshalJSON encodes the alert level as its string form.
func (a AlertLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes the string form produced by MarshalJSON.
func (a *AlertLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Safe":
		*a = AlertSafe
	case "Warning":
		*a = AlertWarning
	case "Critical":
		*a = AlertCritical
	default:
		return fmt.Errorf("unknown alert level %q", s)
	}
	return nil
}

// Max returns the more severe of two alert levels.
func (a AlertLevel) Max(b AlertLevel) AlertLevel {
	if b > a {
		return b
	}
	return a
}

// Trend classifies recent fused-score history within the sliding window.
type Trend string

const (
	TrendStable    Trend = "stable"
	TrendRising    Trend = "rising"
	TrendFalling   Trend = "falling"
	TrendSustained Trend = "sustained"
	TrendSpike     Trend = "spike"
)

// EventType identifies the dominant signal behind a logged event.
type EventType string

const (
	EventGunshot           EventType = "gunshot"
	EventAbusiveSpeech     EventType = "abusive_speech"
	EventAggressiveEmotion EventType = "aggressive_emotion"
	EventCombined          EventType = "combined"
)

// Chunk is a fixed-duration, overlapping segment of normalized audio.
// Created by the chunker and consumed exactly once by the orchestrator.
type Chunk struct {
	ChunkID   int
	StartTime float64 // seconds
	EndTime   float64 // seconds
	Waveform  []float32
}

// FeatureVector holds the per-chunk outputs of all feature extractors.
// Gated scores default to zero when their precondition is unmet; that is
// policy, not failure.
type FeatureVector struct {
	ChunkID           int
	HasSpeech         bool
	SpeechProbability float64
	AcousticScore     float64
	AcousticEvents    []AcousticEvent
	NLPThreatScore    float64
	EmotionScore      float64
	Transcript        string
	// Degraded lists modalities that failed and were recovered as absent.
	// Consumed only by error reporting, never by fusion.
	Degraded []string
}

// AcousticEvent is one detected sound class with its confidence.
type AcousticEvent struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// ComponentScores records all three modality scores, zeros where absent,
// for downstream explanation generation.
type ComponentScores struct {
	Acoustic float64 `json:"acoustic"`
	NLP      float64 `json:"nlp"`
	Emotion  float64 `json:"emotion"`
}

// FusedScore is the single scalar risk score derived from one FeatureVector.
type FusedScore struct {
	ChunkID    int
	Score      float64
	Components ComponentScores
}

// TemporalSnapshot is the temporal analyzer's view after one score update.
type TemporalSnapshot struct {
	Trend           Trend     `json:"trend"`
	EscalationScore float64   `json:"escalationScore"`
	Prediction      string    `json:"prediction"`
	WindowScores    []float64 `json:"windowScores,omitempty"`
}

// Event is appended to the session log whenever a chunk's fused score
// crosses the event threshold. Never mutated after creation.
type Event struct {
	Start       float64    `json:"start"`
	End         float64    `json:"end"`
	Type        EventType  `json:"type"`
	Confidence  float64    `json:"confidence"`
	Alert       AlertLevel `json:"alert"`
	Explanation string     `json:"explanation"`
	Transcript  string     `json:"transcript,omitempty"`
}

// ChunkResult is the per-chunk decision record accumulated by a session.
type ChunkResult struct {
	ChunkID       int              `json:"chunkId"`
	Start         float64          `json:"start"`
	End           float64          `json:"end"`
	FusedScore    float64          `json:"fusedScore"`
	AcousticScore float64          `json:"acousticScore"`
	NLPScore      float64          `json:"nlpScore"`
	EmotionScore  float64          `json:"emotionScore"`
	HasSpeech     bool             `json:"hasSpeech"`
	Transcript    string           `json:"transcript"`
	Alert         AlertLevel       `json:"alert"`
	Explanation   string           `json:"explanation"`
	Temporal      TemporalSnapshot `json:"temporal"`
}

// Statistics summarizes chunk-level outcomes for a session.
type Statistics struct {
	ViolenceChunks int `json:"violenceChunks"`
	SafeChunks     int `json:"safeChunks"`
}

// TemporalSummary is the final temporal assessment for a whole session.
type TemporalSummary struct {
	EscalationTrend Trend   `json:"escalationTrend"`
	EscalationScore float64 `json:"escalationScore"`
	Prediction      string  `json:"prediction"`
}

// Report is the full aggregated result for one analysis session.
type Report struct {
	SessionID        string          `json:"sessionId"`
	ViolenceDetected bool            `json:"violenceDetected"`
	OverallAlert     AlertLevel      `json:"overallAlert"`
	Duration         float64         `json:"duration"`
	TotalChunks      int             `json:"totalChunks"`
	Events           []Event         `json:"events"`
	Chunks           []ChunkResult   `json:"chunks"`
	Temporal         TemporalSummary `json:"temporalAnalysis"`
	Statistics       Statistics      `json:"statistics"`
	MeanScore        float64         `json:"meanScore"`
	PeakScore        float64         `json:"peakScore"`
	ProcessingTime   float64         `json:"processingTime"`
}

// StreamMessage is the per-chunk payload sent to streaming clients as each
// chunk becomes available.
type StreamMessage struct {
	ChunkID       int              `json:"chunkId"`
	FusedScore    float64          `json:"fusedScore"`
	AcousticScore float64          `json:"acousticScore"`
	NLPScore      float64          `json:"nlpScore"`
	EmotionScore  float64          `json:"emotionScore"`
	HasSpeech     bool             `json:"hasSpeech"`
	Transcript    string           `json:"transcript"`
	Alert         AlertLevel       `json:"alert"`
	Explanation   string           `json:"explanation"`
	EventType     EventType        `json:"eventType,omitempty"`
	Temporal      TemporalSnapshot `json:"temporal"`
}
