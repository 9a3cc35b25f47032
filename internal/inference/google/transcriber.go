// Package google provides a Google Cloud Speech-to-Text transcriber.
package google

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"audio-sentinel-service/internal/audio"
	"audio-sentinel-service/internal/inference"
)

// Transcriber implements inference.Transcriber using Google Cloud
// Speech-to-Text. Each analysis chunk is short enough for synchronous
// recognition, so it issues one unary Recognize call per chunk.
type Transcriber struct {
	client       *speech.Client
	languageCode string
	sampleRate   int32
}

// NewTranscriber creates a new Google transcriber.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func NewTranscriber(ctx context.Context, languageCode string, sampleRate int) (*Transcriber, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Transcriber{
		client:       c,
		languageCode: languageCode,
		sampleRate:   int32(sampleRate),
	}, nil
}

// Transcribe sends the chunk waveform as LINEAR16 PCM and returns the top
// recognition alternative.
func (t *Transcriber) Transcribe(ctx context.Context, waveform []float32) (inference.Transcription, error) {
	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: t.sampleRate,
			LanguageCode:    t.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio.EncodePCM16(waveform),
			},
		},
	})
	if err != nil {
		return inference.Transcription{}, err
	}

	var out inference.Transcription
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if out.Text != "" {
			out.Text += " "
		}
		out.Text += alt.Transcript
		if float64(alt.Confidence) > out.Confidence {
			out.Confidence = float64(alt.Confidence)
		}
	}
	return out, nil
}

// Close releases the underlying client.
func (t *Transcriber) Close() error {
	return t.client.Close()
}
