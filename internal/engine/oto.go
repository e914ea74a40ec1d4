// ABOUTME: Playback engine backed by the oto library
// ABOUTME: Creates looped voices with timer-armed scheduled starts
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
	"github.com/LoopSync-Audio/loopsync-go/internal/player"
	"github.com/ebitengine/oto/v3"
)

const (
	outputChannels = 2

	// Smaller device buffer keeps scheduled starts closer to their target
	// instant; residual error is the drift protocol's job.
	deviceBuffer = 20 * time.Millisecond
)

// Engine owns the audio device context and creates one voice per loop.
type Engine struct {
	ctx        *oto.Context
	sampleRate int
}

// New opens the audio device at the session sample rate.
func New(sampleRate int) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: outputChannels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   deviceBuffer,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	log.Printf("Audio engine initialized: %dHz, %d channels", sampleRate, outputChannels)

	return &Engine{
		ctx:        ctx,
		sampleRate: sampleRate,
	}, nil
}

// SampleRate returns the device output rate in Hz.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// NewVoice creates a looped playback voice for the sample.
func (e *Engine) NewVoice(sample *audio.Sample) (player.Voice, error) {
	if len(sample.PCM) == 0 {
		return nil, fmt.Errorf("sample %q has no audio data", sample.Name)
	}
	if sample.Format.Channels != 1 && sample.Format.Channels != outputChannels {
		return nil, fmt.Errorf("sample %q: unsupported channel count %d", sample.Name, sample.Format.Channels)
	}

	stream := newLoopStream(sample, e.sampleRate)
	v := &voice{
		name:   sample.Name,
		stream: stream,
		oto:    e.ctx.NewPlayer(stream),
	}
	return v, nil
}

// Suspend pauses the device context, e.g. when the whole mix stops.
func (e *Engine) Suspend() error {
	return e.ctx.Suspend()
}

// Resume reverses Suspend.
func (e *Engine) Resume() error {
	return e.ctx.Resume()
}

// voice is one engine playback channel. Control-path methods mutate under
// the mutex; the render path only touches the stream.
type voice struct {
	name   string
	stream *loopStream
	oto    *oto.Player

	mu      sync.Mutex
	pending *time.Timer
	gen     uint64 // invalidates timers armed before the last Stop/StartAt
	closed  bool
}

// StartAt rewinds the loop and begins rendering at the given instant. A
// start already pending from a previous call is replaced.
func (v *voice) StartAt(t time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return fmt.Errorf("voice %q is closed", v.name)
	}

	v.cancelPendingLocked()
	v.gen++
	gen := v.gen

	delay := time.Until(t)
	if delay <= 0 {
		// Target instant already passed; begin immediately and let the
		// drift check absorb the difference
		v.startNowLocked()
		return nil
	}

	v.pending = time.AfterFunc(delay, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed || v.gen != gen {
			return // superseded by Stop or a newer StartAt
		}
		v.startNowLocked()
	})
	return nil
}

func (v *voice) startNowLocked() {
	v.oto.Pause()
	v.stream.rewind()
	v.oto.Play()
}

// Stop halts output immediately and suppresses any pending scheduled start.
func (v *voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.cancelPendingLocked()
	v.oto.Pause()
	v.stream.rewind()
}

func (v *voice) cancelPendingLocked() {
	if v.pending != nil {
		v.pending.Stop()
		v.pending = nil
	}
}

// SetRate publishes the playback-rate multiplier to the render path.
func (v *voice) SetRate(rate float64) {
	v.stream.setRate(rate)
}

// Close releases the engine player.
func (v *voice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	v.gen++
	v.cancelPendingLocked()
	return v.oto.Close()
}
