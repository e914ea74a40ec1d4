// ABOUTME: Loop file loading with automatic format dispatch
// ABOUTME: Supports WAV, MP3, and FLAC loop files
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
)

// File loads a loop file into a decoded Sample. The sample's name is the
// filename without extension; OriginalBPM is filled from the filename when
// it carries a tempo tag, otherwise left at zero for the caller to set.
func File(path string) (*audio.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open loop file: %w", err)
	}
	defer f.Close()

	var format audio.Format
	var pcm []int16

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		format, pcm, err = WAV(f)
	case ".mp3":
		format, pcm, err = MP3(f)
	case ".flac":
		format, pcm, err = FLAC(f)
	default:
		return nil, fmt.Errorf("unsupported loop format: %s (supported: .wav, .mp3, .flac)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sample := &audio.Sample{
		Name:   name,
		Format: format,
		PCM:    pcm,
	}

	if bpm, ok := audio.BPMFromFilename(name); ok {
		sample.OriginalBPM = bpm
	}

	return sample, nil
}
