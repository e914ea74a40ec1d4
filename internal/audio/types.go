// ABOUTME: Audio type definitions for decoded loop samples
// ABOUTME: Defines formats, samples, and bit-depth conversion helpers
package audio

import (
	"fmt"
	"time"
)

// Format describes decoded PCM audio.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Sample is one decoded loop, authored at a known tempo.
type Sample struct {
	ID          string
	Name        string
	OriginalBPM float64
	Format      Format
	PCM         []int16 // interleaved
}

// Frames returns the number of per-channel frames in the sample.
func (s *Sample) Frames() int {
	if s.Format.Channels == 0 {
		return 0
	}
	return len(s.PCM) / s.Format.Channels
}

// Duration returns the playing time of the sample at its native rate.
func (s *Sample) Duration() time.Duration {
	if s.Format.SampleRate == 0 {
		return 0
	}
	seconds := float64(s.Frames()) / float64(s.Format.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

func (s *Sample) String() string {
	return fmt.Sprintf("%s (%.1f BPM, %dHz, %dch, %v)",
		s.Name, s.OriginalBPM, s.Format.SampleRate, s.Format.Channels, s.Duration().Round(time.Millisecond))
}

// ScaleToInt16 converts a sample of the given bit depth to 16-bit.
func ScaleToInt16(v int32, bitsPerSample int) int16 {
	switch {
	case bitsPerSample > 16:
		return int16(v >> (bitsPerSample - 16))
	case bitsPerSample < 16:
		return int16(v << (16 - bitsPerSample))
	default:
		return int16(v)
	}
}
