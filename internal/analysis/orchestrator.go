// Package analysis implements the violence-risk scoring pipeline: feature
// extraction across the inference collaborators, score fusion, temporal
// trend detection, and alert decisions.
package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/inference"
	"audio-sentinel-service/internal/models"
	"audio-sentinel-service/internal/observability/logging"
	"audio-sentinel-service/internal/observability/metrics"
)

// Orchestrator produces exactly one FeatureVector per chunk. The VAD and
// the acoustic classifier always run; the transcriber runs only when speech
// is detected, and the toxicity and emotion models run only when the
// transcript is non-empty. A failed inference call degrades that modality
// to a zero score instead of failing the chunk.
type Orchestrator struct {
	suite           inference.Suite
	speechThreshold float64
	metrics         *metrics.Metrics
	log             zerolog.Logger
}

// NewOrchestrator builds an orchestrator over the given inference suite.
func NewOrchestrator(suite inference.Suite, cfg config.InferenceConfig) *Orchestrator {
	return &Orchestrator{
		suite:           suite,
		speechThreshold: cfg.SpeechThreshold,
		metrics:         metrics.Default,
		log:             logging.WithComponent("orchestrator"),
	}
}

// Extract runs the conditional extraction graph for one chunk. It never
// returns an error: modality failures are recovered locally and recorded in
// the vector's Degraded list for observability.
func (o *Orchestrator) Extract(ctx context.Context, chunk models.Chunk) models.FeatureVector {
	v := models.FeatureVector{ChunkID: chunk.ChunkID}

	// Voice activity, always. If the detector itself fails we assume speech
	// is present rather than silently skipping the language models.
	vad, err := o.timedVAD(ctx, chunk.Waveform)
	if err != nil {
		o.degrade(&v, "vad", chunk.ChunkID, err)
		vad = inference.VADResult{SpeechProbability: 0.5}
		v.HasSpeech = true
	} else {
		v.HasSpeech = vad.SpeechProbability > o.speechThreshold
	}
	v.SpeechProbability = vad.SpeechProbability

	// Acoustic events, always. Works on speech and non-speech audio alike.
	ac, err := o.timedAcoustic(ctx, chunk.Waveform)
	if err != nil {
		o.degrade(&v, "acoustic", chunk.ChunkID, err)
	} else {
		v.AcousticEvents = ac.Events
		v.AcousticScore = inference.ReduceAcoustic(ac.Events)
	}

	if !v.HasSpeech {
		return v
	}

	tr, err := o.timedTranscribe(ctx, chunk.Waveform)
	if err != nil {
		o.degrade(&v, "transcriber", chunk.ChunkID, err)
		return v
	}
	v.Transcript = tr.Text

	if strings.TrimSpace(v.Transcript) == "" {
		return v
	}

	tox, err := o.timedToxicity(ctx, v.Transcript)
	if err != nil {
		o.degrade(&v, "toxicity", chunk.ChunkID, err)
	} else {
		v.NLPThreatScore = tox.ThreatScore()
	}

	emo, err := o.timedEmotion(ctx, chunk.Waveform)
	if err != nil {
		o.degrade(&v, "emotion", chunk.ChunkID, err)
	} else {
		v.EmotionScore = emo.ViolenceScore()
	}

	return v
}

func (o *Orchestrator) degrade(v *models.FeatureVector, modality string, chunkID int, err error) {
	v.Degraded = append(v.Degraded, modality)
	o.metrics.RecordModalityFailure(modality)
	o.log.Warn().
		Err(err).
		Int("chunkId", chunkID).
		Str("modality", modality).
		Msg("Inference call failed, modality degraded to absent")
}

func (o *Orchestrator) timedVAD(ctx context.Context, w []float32) (inference.VADResult, error) {
	start := time.Now()
	res, err := o.suite.VAD.DetectSpeech(ctx, w)
	o.metrics.RecordInference("vad", time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) timedAcoustic(ctx context.Context, w []float32) (inference.AcousticResult, error) {
	start := time.Now()
	res, err := o.suite.Acoustic.Classify(ctx, w)
	o.metrics.RecordInference("acoustic", time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) timedTranscribe(ctx context.Context, w []float32) (inference.Transcription, error) {
	start := time.Now()
	res, err := o.suite.Transcriber.Transcribe(ctx, w)
	o.metrics.RecordInference("transcriber", time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) timedToxicity(ctx context.Context, text string) (inference.ToxicityScores, error) {
	start := time.Now()
	res, err := o.suite.Toxicity.Score(ctx, text)
	o.metrics.RecordInference("toxicity", time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) timedEmotion(ctx context.Context, w []float32) (inference.EmotionScores, error) {
	start := time.Now()
	res, err := o.suite.Emotion.Classify(ctx, w)
	o.metrics.RecordInference("emotion", time.Since(start).Seconds())
	return res, err
}
