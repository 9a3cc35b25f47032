package analysis

import (
	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/models"
)

// Fuser combines per-chunk modality scores into one fused risk score.
// It is a pure function of its input; the weights are fixed at
// construction and validated to sum to 1.0 by config.Validate.
type Fuser struct {
	wAcoustic float64
	wNLP      float64
	wEmotion  float64
}

// NewFuser builds a fuser from validated fusion weights.
func NewFuser(cfg config.FusionConfig) *Fuser {
	return &Fuser{
		wAcoustic: cfg.AcousticWeight,
		wNLP:      cfg.NLPWeight,
		wEmotion:  cfg.EmotionWeight,
	}
}

// Fuse derives the fused score for one feature vector. Without speech the
// acoustic signal is the only available modality and carries full weight;
// with speech the three modalities are combined by the configured weights.
func (f *Fuser) Fuse(v models.FeatureVector) models.FusedScore {
	var fused float64
	if v.HasSpeech {
		fused = f.wAcoustic*v.AcousticScore + f.wNLP*v.NLPThreatScore + f.wEmotion*v.EmotionScore
	} else {
		fused = v.AcousticScore
	}

	if fused < 0 {
		fused = 0
	} else if fused > 1 {
		fused = 1
	}

	return models.FusedScore{
		ChunkID: v.ChunkID,
		Score:   fused,
		Components: models.ComponentScores{
			Acoustic: v.AcousticScore,
			NLP:      v.NLPThreatScore,
			Emotion:  v.EmotionScore,
		},
	}
}
