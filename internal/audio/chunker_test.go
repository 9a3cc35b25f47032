package audio

import (
	"math"
	"testing"

	"audio-sentinel-service/internal/config"
)

func testChunker() *Chunker {
	return NewChunker(config.ChunkerConfig{
		SampleRate:    16000,
		ChunkDuration: 2.5,
		Stride:        2.0,
		MinDuration:   1.0,
	})
}

func sine(durationSec float64, sr int) []float32 {
	n := int(durationSec * float64(sr))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sr)))
	}
	return out
}

func TestSplit_ChunkCountFormula(t *testing.T) {
	c := testChunker()

	tests := []struct {
		name     string
		duration float64
		want     int
	}{
		{"shorter than one chunk", 1.5, 1},
		{"exactly one chunk", 2.5, 1},
		{"seven seconds keeps 1s tail", 7.0, 4},
		{"tail under minimum dropped", 6.5, 3},
		{"ten seconds", 10.0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := c.Split(sine(tt.duration, 16000))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(chunks) != tt.want {
				t.Errorf("duration %.1fs: expected %d chunks, got %d", tt.duration, tt.want, len(chunks))
			}
		})
	}
}

func TestSplit_BoundariesAndPadding(t *testing.T) {
	c := testChunker()
	chunks, err := c.Split(sine(7.0, 16000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for k, ch := range chunks {
		if ch.ChunkID != k {
			t.Errorf("chunk %d: ChunkID = %d", k, ch.ChunkID)
		}
		wantStart := float64(k) * 2.0
		if ch.StartTime != wantStart {
			t.Errorf("chunk %d: start = %v, want %v", k, ch.StartTime, wantStart)
		}
		if len(ch.Waveform) != c.ChunkSamples() {
			t.Errorf("chunk %d: %d samples, want %d", k, len(ch.Waveform), c.ChunkSamples())
		}
	}

	// Trailing chunk carries only 1s of real audio; its end time reflects
	// the audio, not the zero padding.
	last := chunks[len(chunks)-1]
	if last.EndTime != 7.0 {
		t.Errorf("last chunk end = %v, want 7.0", last.EndTime)
	}
	for _, s := range last.Waveform[16000:] {
		if s != 0 {
			t.Fatal("expected zero padding after real audio in trailing chunk")
		}
	}
}

func TestSplit_ShortAudioZeroPadded(t *testing.T) {
	c := testChunker()
	chunks, err := c.Split(sine(1.2, 16000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	ch := chunks[0]
	if len(ch.Waveform) != c.ChunkSamples() {
		t.Errorf("expected %d samples, got %d", c.ChunkSamples(), len(ch.Waveform))
	}
	if ch.StartTime != 0 {
		t.Errorf("expected start 0, got %v", ch.StartTime)
	}
	if math.Abs(ch.EndTime-1.2) > 1e-9 {
		t.Errorf("expected end 1.2, got %v", ch.EndTime)
	}
}

func TestSplit_EmptyWaveform(t *testing.T) {
	c := testChunker()
	if _, err := c.Split(nil); err != ErrEmptyWaveform {
		t.Errorf("expected ErrEmptyWaveform, got %v", err)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := testChunker()
	wave := sine(9.3, 16000)

	a, err := c.Split(wave)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Split(wave)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for k := range a {
		if a[k].StartTime != b[k].StartTime || a[k].EndTime != b[k].EndTime {
			t.Errorf("chunk %d boundaries differ between runs", k)
		}
		for i := range a[k].Waveform {
			if a[k].Waveform[i] != b[k].Waveform[i] {
				t.Fatalf("chunk %d sample %d differs between runs", k, i)
			}
		}
	}
}

func TestDecodePCM16(t *testing.T) {
	// 0x7FFF -> just under 1.0, 0x8000 -> -1.0, 0x0000 -> 0.0
	data := []byte{0xFF, 0x7F, 0x00, 0x80, 0x00, 0x00}
	samples, err := DecodePCM16(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0] <= 0.99 || samples[0] >= 1.0 {
		t.Errorf("expected sample near 1.0, got %v", samples[0])
	}
	if samples[1] != -1.0 {
		t.Errorf("expected -1.0, got %v", samples[1])
	}
	if samples[2] != 0 {
		t.Errorf("expected 0, got %v", samples[2])
	}
}

func TestDecodePCM16_OddLength(t *testing.T) {
	if _, err := DecodePCM16([]byte{0x01}); err != ErrOddPCMLength {
		t.Errorf("expected ErrOddPCMLength, got %v", err)
	}
}
