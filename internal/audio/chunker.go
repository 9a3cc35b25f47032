// Package audio provides audio chunking and raw PCM frame decoding. The
// ingestion boundary for the analysis pipeline is a normalized mono 16 kHz
// float32 waveform; decoding and resampling of arbitrary media is an
// upstream concern.
package audio

import (
	"errors"

	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/models"
)

// ErrEmptyWaveform is returned when a waveform with no samples is submitted.
var ErrEmptyWaveform = errors.New("audio: empty waveform")

// Chunker splits a waveform into fixed-duration overlapping windows.
// Boundaries are computed directly from sample counts so repeated runs over
// the same input produce identical chunks.
type Chunker struct {
	sampleRate   int
	chunkSamples int
	strideSample int
	minSamples   int
}

// NewChunker builds a chunker from validated configuration.
func NewChunker(cfg config.ChunkerConfig) *Chunker {
	return &Chunker{
		sampleRate:   cfg.SampleRate,
		chunkSamples: int(cfg.ChunkDuration * float64(cfg.SampleRate)),
		strideSample: int(cfg.Stride * float64(cfg.SampleRate)),
		minSamples:   int(cfg.MinDuration * float64(cfg.SampleRate)),
	}
}

// SampleRate returns the expected waveform sample rate.
func (c *Chunker) SampleRate() int { return c.sampleRate }

// ChunkSamples returns the fixed sample count carried by every chunk.
func (c *Chunker) ChunkSamples() int { return c.chunkSamples }

// StrideSamples returns the sample distance between chunk starts.
func (c *Chunker) StrideSamples() int { return c.strideSample }

// NumChunks returns how many chunks a waveform of the given sample count
// produces. A trailing partial shorter than the minimum duration is not
// counted; audio shorter than one chunk still produces exactly one chunk.
func (c *Chunker) NumChunks(totalSamples int) int {
	if totalSamples <= 0 {
		return 0
	}
	if totalSamples <= c.chunkSamples {
		return 1
	}
	// Full chunks fit while start+chunkSamples <= total.
	n := (totalSamples-c.chunkSamples)/c.strideSample + 1
	// One trailing partial, kept only if it meets the minimum duration.
	rem := totalSamples - n*c.strideSample
	if rem >= c.minSamples {
		n++
	}
	return n
}

// ChunkAt returns chunk k of the waveform, zero-padded to the fixed chunk
// size when it extends past the end of the audio. EndTime reflects the real
// audio extent, not the padding.
func (c *Chunker) ChunkAt(waveform []float32, k int) models.Chunk {
	total := len(waveform)
	start := k * c.strideSample
	end := start + c.chunkSamples

	buf := make([]float32, c.chunkSamples)
	if start < total {
		copy(buf, waveform[start:min(end, total)])
	}

	return models.Chunk{
		ChunkID:   k,
		StartTime: float64(start) / float64(c.sampleRate),
		EndTime:   float64(min(end, total)) / float64(c.sampleRate),
		Waveform:  buf,
	}
}

// Split produces all chunks of the waveform in chunk_id order.
func (c *Chunker) Split(waveform []float32) ([]models.Chunk, error) {
	if len(waveform) == 0 {
		return nil, ErrEmptyWaveform
	}
	n := c.NumChunks(len(waveform))
	chunks := make([]models.Chunk, n)
	for k := 0; k < n; k++ {
		chunks[k] = c.ChunkAt(waveform, k)
	}
	return chunks, nil
}
