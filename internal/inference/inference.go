// Package inference defines the interfaces for the five external model
// collaborators. The pipeline depends only on these contracts; concrete
// providers (mock, Google, future ONNX runtimes) live in subpackages.
package inference

import (
	"context"

	"audio-sentinel-service/internal/models"
)

// SpeechSpan is one detected speech region within a chunk, in seconds
// relative to the chunk start.
type SpeechSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// VADResult is the voice-activity detector output for one chunk.
type VADResult struct {
	SpeechProbability float64
	Spans             []SpeechSpan
}

// VoiceActivityDetector reports how much of a waveform is speech.
type VoiceActivityDetector interface {
	DetectSpeech(ctx context.Context, waveform []float32) (VADResult, error)
}

// AcousticResult is the acoustic event classifier output: per-class
// confidences over the model's sound taxonomy, already filtered to the
// classes the classifier chose to report.
type AcousticResult struct {
	Events []models.AcousticEvent
}

// AcousticClassifier detects sound events in a waveform. It is never gated
// on speech; it works on speech and non-speech audio alike.
type AcousticClassifier interface {
	Classify(ctx context.Context, waveform []float32) (AcousticResult, error)
}

// Transcription is the speech-to-text output for one chunk.
type Transcription struct {
	Text       string
	Confidence float64
}

// Transcriber converts a speech waveform to text.
type Transcriber interface {
	Transcribe(ctx context.Context, waveform []float32) (Transcription, error)
}

// ToxicityScores holds per-category toxicity confidences for a text.
type ToxicityScores struct {
	Toxic        float64
	SevereToxic  float64
	Threat       float64
	Insult       float64
	Obscene      float64
	IdentityHate float64
}

// ThreatScore reduces the category vector to the violence-relevant scalar:
// the maximum across toxic, severe_toxic and threat.
func (s ToxicityScores) ThreatScore() float64 {
	return max(s.Toxic, s.SevereToxic, s.Threat)
}

// ToxicityScorer scores transcribed text for toxicity.
type ToxicityScorer interface {
	Score(ctx context.Context, text string) (ToxicityScores, error)
}

// EmotionScores holds per-emotion confidences for a voice waveform.
type EmotionScores struct {
	Angry   float64
	Fear    float64
	Happy   float64
	Sad     float64
	Neutral float64
}

// ViolenceScore reduces the emotion vector to the violence-relevant scalar:
// the maximum of angry and fear.
func (s EmotionScores) ViolenceScore() float64 {
	return max(s.Angry, s.Fear)
}

// EmotionClassifier infers emotion from vocal tone.
type EmotionClassifier interface {
	Classify(ctx context.Context, waveform []float32) (EmotionScores, error)
}

// Suite bundles the five collaborators handed to the orchestrator.
type Suite struct {
	VAD         VoiceActivityDetector
	Acoustic    AcousticClassifier
	Transcriber Transcriber
	Toxicity    ToxicityScorer
	Emotion     EmotionClassifier
}

// ViolentClassWeights maps sound taxonomy classes to violence relevance.
// The acoustic violence score is the maximum weighted confidence across
// detected classes that match this table.
var ViolentClassWeights = map[string]float64{
	"Gunshot, gunfire": 1.0,
	"Machine gun":      1.0,
	"Explosion":        0.95,
	"Screaming":        0.85,
	"Shout":            0.6,
	"Battle cry":       0.8,
	"Glass":            0.7,
	"Shatter":          0.8,
	"Slap, smack":      0.9,
	"Whack, thwack":    0.85,
	"Boom":             0.75,
	"Smash, crash":     0.75,
	"Thump, thud":      0.5,
	"Crying, sobbing":  0.4,
	"Siren":            0.3,
}

// ReduceAcoustic computes the acoustic violence score from detected events:
// the maximum weighted confidence over violent classes, clamped to [0,1].
// Events that match no violent class contribute nothing.
func ReduceAcoustic(events []models.AcousticEvent) float64 {
	score := 0.0
	for _, ev := range events {
		if w, ok := ViolentClassWeights[ev.Class]; ok {
			if s := ev.Score * w; s > score {
				score = s
			}
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// TopViolentClass returns the detected class carrying the highest weighted
// confidence, the same detection ReduceAcoustic scored. Empty when nothing
// matches the weight table.
func TopViolentClass(events []models.AcousticEvent) string {
	best := ""
	score := 0.0
	for _, ev := range events {
		if w, ok := ViolentClassWeights[ev.Class]; ok {
			if s := ev.Score * w; s > score {
				score = s
				best = ev.Class
			}
		}
	}
	return best
}
