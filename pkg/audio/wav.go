// Package audio provides WAV decoding and sample-rate conversion helpers for
// feeding recognizer backends. Recognizers consume mono float32 PCM at 16 kHz;
// this package normalises arbitrary small WAV blobs into that shape.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// TargetSampleRate is the sample rate recognizer backends expect.
const TargetSampleRate = 16000

// Clip is decoded, normalised audio ready for a recognizer.
type Clip struct {
	// Samples is mono float32 PCM in [-1, 1].
	Samples []float32

	// SampleRate is the rate of Samples in Hz.
	SampleRate int
}

// DurationSec returns the clip length in seconds.
func (c Clip) DurationSec() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// DecodeWAV decodes a WAV blob into float32 PCM at its native sample rate.
// Multi-channel audio is downmixed to mono by averaging channels.
func DecodeWAV(b []byte) (Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return Clip{}, errors.New("audio: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return Clip{}, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Clip{}, errors.New("audio: empty wav buffer")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += float32(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	rate := int(dec.SampleRate)
	if rate == 0 && buf.Format != nil {
		rate = buf.Format.SampleRate
	}
	if rate == 0 {
		rate = TargetSampleRate
	}

	return Clip{Samples: samples, SampleRate: rate}, nil
}

// Resample converts the clip to outRate using linear interpolation. The input
// clip is not modified; when the rates already match a copy is returned.
func Resample(c Clip, outRate int) (Clip, error) {
	if c.SampleRate <= 0 || outRate <= 0 {
		return Clip{}, fmt.Errorf("audio: invalid sample rate %d -> %d", c.SampleRate, outRate)
	}
	if c.SampleRate == outRate {
		return Clip{Samples: append([]float32(nil), c.Samples...), SampleRate: outRate}, nil
	}
	if len(c.Samples) == 0 {
		return Clip{SampleRate: outRate}, nil
	}

	ratio := float64(outRate) / float64(c.SampleRate)
	outLen := max(int(float64(len(c.Samples))*ratio), 1)

	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		i0 := int(srcPos)
		if i0 >= len(c.Samples)-1 {
			out[i] = c.Samples[len(c.Samples)-1]
			continue
		}
		frac := float32(srcPos - float64(i0))
		out[i] = c.Samples[i0] + (c.Samples[i0+1]-c.Samples[i0])*frac
	}

	return Clip{Samples: out, SampleRate: outRate}, nil
}

// DecodeWAVForRecognition decodes a WAV blob and resamples it to
// [TargetSampleRate] mono, the shape every recognizer backend accepts.
func DecodeWAVForRecognition(b []byte) (Clip, error) {
	clip, err := DecodeWAV(b)
	if err != nil {
		return Clip{}, err
	}
	return Resample(clip, TargetSampleRate)
}
