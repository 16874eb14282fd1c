package lyria

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
)

// Format is the fixed stream format produced by the music model:
// interleaved signed 16-bit little-endian stereo at 48 kHz.
var Format = beep.Format{
	SampleRate:  48000,
	NumChannels: 2,
	Precision:   2,
}

// Buffer is one decoded audio chunk
type Buffer struct {
	Samples [][2]float64
}

// Duration is the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	return Format.SampleRate.D(len(b.Samples))
}

// DecodeChunk decodes a base64 PCM payload into normalised samples (int16 / 32768).
func DecodeChunk(data string) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}
	return DecodePCM(raw)
}

// DecodePCM converts raw interleaved PCM16 bytes into a Buffer.
// The length must be a whole number of frames.
func DecodePCM(raw []byte) (*Buffer, error) {
	frameSize := Format.Width()
	if len(raw)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformedChunk, len(raw), frameSize)
	}

	samples := make([][2]float64, len(raw)/frameSize)
	for i := range samples {
		off := i * frameSize
		for ch := 0; ch < Format.NumChannels; ch++ {
			pos := off + ch*Format.Precision
			sample16 := int16(raw[pos]) | int16(raw[pos+1])<<8
			samples[i][ch] = float64(sample16) / 32768.0
		}
	}
	return &Buffer{Samples: samples}, nil
}
