// ABOUTME: Tests for loop file loading and format dispatch
// ABOUTME: Covers extension routing, tempo tagging, and error paths
package decode

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeTestWAV(t *testing.T, dir, name string) string {
	t.Helper()

	samples := []int16{0, 1000, -1000, 500}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildWAV(2, 48000, 16, data), 0o644); err != nil {
		t.Fatalf("failed to write test wav: %v", err)
	}
	return path
}

func TestFileLoadsWAVWithTempoTag(t *testing.T) {
	path := writeTestWAV(t, t.TempDir(), "groove_84bpm.wav")

	sample, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if sample.Name != "groove_84bpm" {
		t.Errorf("expected name groove_84bpm, got %s", sample.Name)
	}
	if sample.OriginalBPM != 84 {
		t.Errorf("expected tempo 84 from filename, got %v", sample.OriginalBPM)
	}
	if sample.Format.SampleRate != 48000 || sample.Format.Channels != 2 {
		t.Errorf("unexpected format: %+v", sample.Format)
	}
	if sample.Frames() != 2 {
		t.Errorf("expected 2 frames, got %d", sample.Frames())
	}
}

func TestFileWithoutTempoTag(t *testing.T) {
	path := writeTestWAV(t, t.TempDir(), "ambient-pad.wav")

	sample, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if sample.OriginalBPM != 0 {
		t.Errorf("expected zero tempo for untagged file, got %v", sample.OriginalBPM)
	}
}

func TestFileRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.ogg")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := File(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
