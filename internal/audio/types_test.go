// ABOUTME: Tests for audio sample types and helpers
// ABOUTME: Covers frame math, bit-depth scaling, and filename tempo parsing
package audio

import (
	"testing"
	"time"
)

func TestSampleFrames(t *testing.T) {
	s := &Sample{
		Format: Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
		PCM:    make([]int16, 96000),
	}

	if got := s.Frames(); got != 48000 {
		t.Errorf("expected 48000 frames, got %d", got)
	}
	if got := s.Duration(); got != time.Second {
		t.Errorf("expected 1s duration, got %v", got)
	}
}

func TestSampleFramesMono(t *testing.T) {
	s := &Sample{
		Format: Format{SampleRate: 44100, Channels: 1, BitDepth: 16},
		PCM:    make([]int16, 44100),
	}

	if got := s.Frames(); got != 44100 {
		t.Errorf("expected 44100 frames, got %d", got)
	}
}

func TestScaleToInt16(t *testing.T) {
	// 24-bit full scale maps to 16-bit full scale
	if got := ScaleToInt16(8388607, 24); got != 32767 {
		t.Errorf("24-bit max: expected 32767, got %d", got)
	}
	if got := ScaleToInt16(-8388608, 24); got != -32768 {
		t.Errorf("24-bit min: expected -32768, got %d", got)
	}

	// 16-bit passes through
	if got := ScaleToInt16(-12345, 16); got != -12345 {
		t.Errorf("16-bit: expected -12345, got %d", got)
	}

	// 8-bit scales up
	if got := ScaleToInt16(127, 8); got != 32512 {
		t.Errorf("8-bit max: expected 32512, got %d", got)
	}
}

func TestBPMFromFilename(t *testing.T) {
	cases := []struct {
		name string
		bpm  float64
		ok   bool
	}{
		{"groove_84bpm.wav", 84, true},
		{"break 174 BPM.flac", 174, true},
		{"half_87.5bpm.mp3", 87.5, true},
		{"ambient-pad.wav", 0, false},
		{"0bpm.wav", 0, false},
	}

	for _, tc := range cases {
		bpm, ok := BPMFromFilename(tc.name)
		if ok != tc.ok {
			t.Errorf("%s: expected ok=%v, got %v", tc.name, tc.ok, ok)
			continue
		}
		if ok && bpm != tc.bpm {
			t.Errorf("%s: expected %v BPM, got %v", tc.name, tc.bpm, bpm)
		}
	}
}
