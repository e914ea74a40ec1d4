// ABOUTME: MP3 loop file decoder
// ABOUTME: Decodes a whole MP3 stream to int16 samples via go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes an entire MP3 stream into 16-bit interleaved PCM. The go-mp3
// decoder always outputs stereo 16-bit little-endian.
func MP3(r io.Reader) (audio.Format, []int16, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}

	format := audio.Format{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
	return format, pcm, nil
}
