// Package mock provides deterministic simulated inference engines for
// development and testing without model runtimes or cloud credentials.
// Every engine derives its output purely from waveform statistics, so
// repeated analysis of the same audio yields identical results.
package mock

import (
	"context"
	"math"
	"strings"

	"audio-sentinel-service/internal/inference"
	"audio-sentinel-service/internal/models"
)

func rms(waveform []float32) float64 {
	if len(waveform) == 0 {
		return 0
	}
	var sum float64
	for _, s := range waveform {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(waveform)))
}

func peak(waveform []float32) float64 {
	var p float64
	for _, s := range waveform {
		if a := math.Abs(float64(s)); a > p {
			p = a
		}
	}
	return p
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// VAD reports speech proportional to signal energy. Loud sustained audio
// reads as speech; near-silence does not.
type VAD struct{}

// DetectSpeech implements inference.VoiceActivityDetector.
func (VAD) DetectSpeech(_ context.Context, waveform []float32) (inference.VADResult, error) {
	e := rms(waveform)
	prob := clamp01(e * 6)
	res := inference.VADResult{SpeechProbability: prob}
	if prob > 0.5 {
		res.Spans = []inference.SpeechSpan{{Start: 0, End: float64(len(waveform)) / 16000.0}}
	}
	return res, nil
}

// Acoustic reports impulsive high-amplitude content as violent sound
// classes, mimicking a sound event classifier's top detections.
type Acoustic struct{}

// Classify implements inference.AcousticClassifier.
func (Acoustic) Classify(_ context.Context, waveform []float32) (inference.AcousticResult, error) {
	p := peak(waveform)
	e := rms(waveform)

	var events []models.AcousticEvent
	// Crest factor distinguishes impulses (gunshot-like) from sustained loudness.
	if e > 0 && p/e > 4 && p > 0.7 {
		events = append(events, models.AcousticEvent{Class: "Gunshot, gunfire", Score: clamp01(p)})
	} else if p > 0.8 {
		events = append(events, models.AcousticEvent{Class: "Shout", Score: clamp01(p)})
	}
	if e > 0.05 {
		events = append(events, models.AcousticEvent{Class: "Speech", Score: clamp01(e * 5)})
	}
	return inference.AcousticResult{Events: events}, nil
}

// Utterances is the fixed phrase table the mock transcriber draws from,
// selected deterministically by chunk energy.
var Utterances = []string{
	"can you help me with this",
	"I told you to stay away from me",
	"everything is fine over here",
	"get out right now or I will hurt you",
	"please lower your voice",
}

// Transcriber returns a canned phrase keyed by signal energy, with empty
// output for near-silent chunks.
type Transcriber struct{}

// Transcribe implements inference.Transcriber.
func (Transcriber) Transcribe(_ context.Context, waveform []float32) (inference.Transcription, error) {
	e := rms(waveform)
	if e < 0.02 {
		return inference.Transcription{}, nil
	}
	idx := int(e*100) % len(Utterances)
	return inference.Transcription{Text: Utterances[idx], Confidence: clamp01(0.6 + e)}, nil
}

// threatTerms maps trigger words to the toxicity categories they excite.
var threatTerms = map[string]inference.ToxicityScores{
	"hurt":    {Toxic: 0.85, SevereToxic: 0.6, Threat: 0.92},
	"kill":    {Toxic: 0.9, SevereToxic: 0.8, Threat: 0.97},
	"hate":    {Toxic: 0.7, Insult: 0.5},
	"stupid":  {Toxic: 0.6, Insult: 0.75},
	"get out": {Toxic: 0.4, Threat: 0.45},
}

// Toxicity scores text by keyword lookup, approximating a multi-label
// toxicity classifier closely enough for pipeline behavior.
type Toxicity struct{}

// Score implements inference.ToxicityScorer.
func (Toxicity) Score(_ context.Context, text string) (inference.ToxicityScores, error) {
	lower := strings.ToLower(text)
	var out inference.ToxicityScores
	for term, scores := range threatTerms {
		if strings.Contains(lower, term) {
			out.Toxic = max(out.Toxic, scores.Toxic)
			out.SevereToxic = max(out.SevereToxic, scores.SevereToxic)
			out.Threat = max(out.Threat, scores.Threat)
			out.Insult = max(out.Insult, scores.Insult)
			out.Obscene = max(out.Obscene, scores.Obscene)
			out.IdentityHate = max(out.IdentityHate, scores.IdentityHate)
		}
	}
	return out, nil
}

// Emotion maps signal energy to arousal: loud voices read angry, quiet
// voices read neutral.
type Emotion struct{}

// Classify implements inference.EmotionClassifier.
func (Emotion) Classify(_ context.Context, waveform []float32) (inference.EmotionScores, error) {
	e := rms(waveform)
	p := peak(waveform)
	return inference.EmotionScores{
		Angry:   clamp01((e - 0.1) * 3),
		Fear:    clamp01((p - 0.6) * 1.5),
		Neutral: clamp01(1 - e*4),
	}, nil
}

// NewSuite returns a full mock inference suite.
func NewSuite() inference.Suite {
	return inference.Suite{
		VAD:         VAD{},
		Acoustic:    Acoustic{},
		Transcriber: Transcriber{},
		Toxicity:    Toxicity{},
		Emotion:     Emotion{},
	}
}
