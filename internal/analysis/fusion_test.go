package analysis

import (
	"math"
	"testing"

	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/models"
)

func TestFuse(t *testing.T) {
	fuser := NewFuser(config.Default().Fusion)

	tests := []struct {
		name   string
		vector models.FeatureVector
		want   float64
	}{
		{
			name: "speech chunk combines all three modalities",
			vector: models.FeatureVector{
				HasSpeech:      true,
				AcousticScore:  0.5,
				NLPThreatScore: 0.8,
				EmotionScore:   0.5,
			},
			want: 0.59, // 0.5*0.5 + 0.3*0.8 + 0.2*0.5
		},
		{
			name: "no speech passes acoustic through at full weight",
			vector: models.FeatureVector{
				HasSpeech:     false,
				AcousticScore: 0.6,
			},
			want: 0.6,
		},
		{
			name: "no speech ignores stale language scores",
			vector: models.FeatureVector{
				HasSpeech:      false,
				AcousticScore:  0.2,
				NLPThreatScore: 0.9,
				EmotionScore:   0.9,
			},
			want: 0.2,
		},
		{
			name:   "all zero",
			vector: models.FeatureVector{HasSpeech: true},
			want:   0,
		},
		{
			name: "maximum scores clamp to one",
			vector: models.FeatureVector{
				HasSpeech:      true,
				AcousticScore:  1.0,
				NLPThreatScore: 1.0,
				EmotionScore:   1.0,
			},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fuser.Fuse(tt.vector)
			if math.Abs(got.Score-tt.want) > 1e-9 {
				t.Errorf("fused = %.6f, want %.6f", got.Score, tt.want)
			}
		})
	}
}

func TestFuse_RecordsComponents(t *testing.T) {
	fuser := NewFuser(config.Default().Fusion)

	got := fuser.Fuse(models.FeatureVector{
		ChunkID:        3,
		HasSpeech:      true,
		AcousticScore:  0.4,
		NLPThreatScore: 0.7,
		EmotionScore:   0.1,
	})

	if got.ChunkID != 3 {
		t.Errorf("chunkID = %d, want 3", got.ChunkID)
	}
	want := models.ComponentScores{Acoustic: 0.4, NLP: 0.7, Emotion: 0.1}
	if got.Components != want {
		t.Errorf("components = %+v, want %+v", got.Components, want)
	}
}

func TestFuse_Deterministic(t *testing.T) {
	fuser := NewFuser(config.Default().Fusion)
	v := models.FeatureVector{
		HasSpeech:      true,
		AcousticScore:  0.33,
		NLPThreatScore: 0.44,
		EmotionScore:   0.55,
	}

	first := fuser.Fuse(v)
	for i := 0; i < 10; i++ {
		if got := fuser.Fuse(v); got != first {
			t.Fatalf("fusion not deterministic: %+v vs %+v", got, first)
		}
	}
}
