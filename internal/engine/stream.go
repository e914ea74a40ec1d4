// ABOUTME: Endless loop PCM stream with rate-scaled linear resampling
// ABOUTME: Render-path io.Reader; rate and rewind are published atomically
package engine

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
)

// loopStream renders a decoded loop endlessly as 16-bit LE stereo at the
// device rate, resampling by linear interpolation. The effective step per
// output frame is baseRatio (source rate / device rate) times the published
// rate multiplier. Read runs on the render path and must not block: rate and
// rewind arrive through atomics, position is owned by the reader.
type loopStream struct {
	pcm         []int16
	srcChannels int
	frames      int
	baseRatio   float64

	rateBits   atomic.Uint64 // float64 bits of the rate multiplier
	rewindFlag atomic.Bool

	pos float64 // fractional source frame position, reader-owned
}

func newLoopStream(sample *audio.Sample, deviceRate int) *loopStream {
	s := &loopStream{
		pcm:         sample.PCM,
		srcChannels: sample.Format.Channels,
		frames:      sample.Frames(),
		baseRatio:   float64(sample.Format.SampleRate) / float64(deviceRate),
	}
	s.rateBits.Store(math.Float64bits(1.0))
	return s
}

func (s *loopStream) setRate(rate float64) {
	s.rateBits.Store(math.Float64bits(rate))
}

// rewind requests that the next render pass restart from the loop start.
func (s *loopStream) rewind() {
	s.rewindFlag.Store(true)
}

// Read renders interleaved stereo int16 little-endian frames.
func (s *loopStream) Read(p []byte) (int, error) {
	if s.rewindFlag.Swap(false) {
		s.pos = 0
	}

	step := s.baseRatio * math.Float64frombits(s.rateBits.Load())
	if step <= 0 {
		step = s.baseRatio
	}

	const bytesPerFrame = outputChannels * 2
	frames := len(p) / bytesPerFrame

	for i := 0; i < frames; i++ {
		idx := int(s.pos)
		frac := s.pos - float64(idx)
		next := idx + 1
		if next >= s.frames {
			next = 0 // interpolate across the loop seam
		}

		for ch := 0; ch < outputChannels; ch++ {
			src := ch
			if s.srcChannels == 1 {
				src = 0
			}
			a := float64(s.pcm[idx*s.srcChannels+src])
			b := float64(s.pcm[next*s.srcChannels+src])
			v := int16(a*(1.0-frac) + b*frac)
			binary.LittleEndian.PutUint16(p[i*bytesPerFrame+ch*2:], uint16(v))
		}

		s.pos += step
		for s.pos >= float64(s.frames) {
			s.pos -= float64(s.frames)
		}
	}

	return frames * bytesPerFrame, nil
}
