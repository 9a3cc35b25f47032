package audio

import "errors"

// ErrOddPCMLength is returned for PCM16 payloads with a trailing half sample.
var ErrOddPCMLength = errors.New("audio: PCM16 payload has odd byte length")

// DecodePCM16 converts little-endian 16-bit PCM bytes to a float32 waveform
// normalized to [-1, 1]. This is the wire format for streamed microphone
// frames and raw uploads.
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, ErrOddPCMLength
	}
	samples := make([]float32, len(data)/2)
	for i := range samples {
		s := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		samples[i] = float32(s) / 32768.0
	}
	return samples, nil
}

// EncodePCM16 converts a float32 waveform back to little-endian 16-bit PCM.
// Used by test tooling and the stream client.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1.0 {
			f = 1.0
		} else if f < -1.0 {
			f = -1.0
		}
		s := int16(f * 32767.0)
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
