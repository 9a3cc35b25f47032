package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"audio-sentinel-service/internal/audio"
	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/inference"
	"audio-sentinel-service/internal/models"
	"audio-sentinel-service/internal/observability/metrics"
)

// Pipeline wires chunking, feature extraction, fusion and decisions into
// one ordered flow. Feature extraction for different chunks is independent
// and runs on a bounded worker pool; fused scores are always handed to the
// temporal analyzer in strictly increasing chunk order, which is the single
// hard ordering invariant of the core.
type Pipeline struct {
	chunker  *audio.Chunker
	orch     *Orchestrator
	fuser    *Fuser
	decision *DecisionEngine
	workers  int
	metrics  *metrics.Metrics
}

// NewPipeline assembles the pipeline from validated configuration and an
// inference suite.
func NewPipeline(cfg *config.Configuration, suite inference.Suite) *Pipeline {
	return &Pipeline{
		chunker:  audio.NewChunker(cfg.Chunker),
		orch:     NewOrchestrator(suite, cfg.Inference),
		fuser:    NewFuser(cfg.Fusion),
		decision: NewDecisionEngine(cfg.Decision),
		workers:  cfg.Session.ExtractWorkers,
		metrics:  metrics.Default,
	}
}

// Chunker exposes the pipeline's chunker for streaming buffer sizing.
func (p *Pipeline) Chunker() *audio.Chunker { return p.chunker }

// ProcessChunk runs one chunk through extraction, fusion, temporal update
// and decision. The caller must invoke it in chunk_id order for a given
// temporal analyzer.
func (p *Pipeline) ProcessChunk(ctx context.Context, chunk models.Chunk, ta *TemporalAnalyzer) (models.ChunkResult, *models.Event) {
	vector := p.orch.Extract(ctx, chunk)
	return p.score(chunk, vector, ta)
}

// score fuses an extracted feature vector and applies temporal and decision
// stages. Split from ProcessChunk so batch mode can extract in parallel and
// still score in order.
func (p *Pipeline) score(chunk models.Chunk, vector models.FeatureVector, ta *TemporalAnalyzer) (models.ChunkResult, *models.Event) {
	start := time.Now()

	fused := p.fuser.Fuse(vector)
	temporal := ta.AddScore(fused.Score)
	alert := p.decision.Decide(fused, temporal)
	explanation := p.decision.Explain(fused, temporal, alert)
	event := p.decision.ClassifyEvent(chunk, vector, fused, temporal, alert)

	p.metrics.RecordChunk(vector.HasSpeech, time.Since(start).Seconds())
	p.metrics.RecordAlert(alert.String())
	if event != nil {
		p.metrics.RecordEvent(string(event.Type))
	}

	return models.ChunkResult{
		ChunkID:       chunk.ChunkID,
		Start:         chunk.StartTime,
		End:           chunk.EndTime,
		FusedScore:    fused.Score,
		AcousticScore: fused.Components.Acoustic,
		NLPScore:      fused.Components.NLP,
		EmotionScore:  fused.Components.Emotion,
		HasSpeech:     vector.HasSpeech,
		Transcript:    vector.Transcript,
		Alert:         alert,
		Explanation:   explanation,
		Temporal:      temporal,
	}, event
}

// RunBatch analyzes a complete waveform. Chunks are extracted eagerly and
// their features computed concurrently, then joined back in chunk order
// before the temporal and decision stages. emit is called once per chunk,
// in order.
func (p *Pipeline) RunBatch(
	ctx context.Context,
	waveform []float32,
	ta *TemporalAnalyzer,
	emit func(models.ChunkResult, *models.Event),
) error {
	chunks, err := p.chunker.Split(waveform)
	if err != nil {
		return err
	}

	vectors := make([]models.FeatureVector, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vectors[i] = p.orch.Extract(gctx, chunks[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range chunks {
		result, event := p.score(chunks[i], vectors[i], ta)
		emit(result, event)
	}
	return nil
}
