// ABOUTME: FLAC loop file decoder
// ABOUTME: Decodes FLAC frames to int16 samples via mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
	"github.com/mewkiz/flac"
)

// FLAC decodes an entire FLAC stream into 16-bit interleaved PCM.
func FLAC(r io.Reader) (audio.Format, []int16, error) {
	stream, err := flac.New(r)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("failed to parse flac stream: %w", err)
	}

	info := stream.Info
	format := audio.Format{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   16,
	}
	bitsPerSample := int(info.BitsPerSample)

	// NSamples is per-channel frames; may be zero for unseekable streams
	pcm := make([]int16, 0, int(info.NSamples)*format.Channels)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return audio.Format{}, nil, fmt.Errorf("flac frame decode error: %w", err)
		}

		blockSize := len(frame.Subframes[0].Samples)
		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < format.Channels; ch++ {
				pcm = append(pcm, audio.ScaleToInt16(frame.Subframes[ch].Samples[i], bitsPerSample))
			}
		}
	}

	return format, pcm, nil
}
