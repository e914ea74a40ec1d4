// ABOUTME: Beat/phase timing authority for synchronized loop playback
// ABOUTME: Maps real time to fractional beats and back under a mutable tempo
package clock

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultBeatsPerBar = 4
	DefaultBarsPerLoop = 4
)

// Clock exposes the timing queries players need. CurrentBeat, CurrentPhase,
// and TimeForBeat must be safe to call from the audio render path.
type Clock interface {
	CurrentBeat() float64
	CurrentPhase() float64
	TimeForBeat(beat float64) time.Time
	BPM() float64
	BeatsPerBar() int
	BarsPerLoop() int
}

// mapping is the linear beat-vs-time relation for one tempo. Origin and slope
// are published together so a reader never observes a half-updated pair.
type mapping struct {
	origin         time.Time // instant at which the clock read originBeat
	originBeat     float64
	bpm            float64
	secondsPerBeat float64
}

func (m *mapping) beatAt(t time.Time) float64 {
	return m.originBeat + t.Sub(m.origin).Seconds()/m.secondsPerBeat
}

// BeatClock is the real-time timing authority shared by all players in a
// session. Reads are lock-free; SetBPM is the sole writer.
type BeatClock struct {
	sampleRate  int
	beatsPerBar int
	barsPerLoop int

	cur atomic.Pointer[mapping]
	mu  sync.Mutex // serializes SetBPM re-anchoring
}

// NewBeatClock creates a clock with the default 4-beat bar, 4-bar loop.
func NewBeatClock(sampleRate int, bpm float64) (*BeatClock, error) {
	return NewBeatClockWithLoop(sampleRate, bpm, DefaultBeatsPerBar, DefaultBarsPerLoop)
}

// NewBeatClockWithLoop creates a clock with an explicit loop geometry.
func NewBeatClockWithLoop(sampleRate int, bpm float64, beatsPerBar, barsPerLoop int) (*BeatClock, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if bpm <= 0 {
		return nil, fmt.Errorf("invalid bpm: %v", bpm)
	}
	if beatsPerBar <= 0 || barsPerLoop <= 0 {
		return nil, fmt.Errorf("invalid loop geometry: %d beats/bar, %d bars/loop", beatsPerBar, barsPerLoop)
	}

	c := &BeatClock{
		sampleRate:  sampleRate,
		beatsPerBar: beatsPerBar,
		barsPerLoop: barsPerLoop,
	}
	c.cur.Store(&mapping{
		origin:         time.Now(),
		originBeat:     0,
		bpm:            bpm,
		secondsPerBeat: 60.0 / bpm,
	})
	return c, nil
}

// CurrentBeat returns the fractional beat position. It grows without bound;
// loop-relative interpretation is the caller's responsibility.
func (c *BeatClock) CurrentBeat() float64 {
	return c.cur.Load().beatAt(time.Now())
}

// CurrentPhase returns the clock's position within one loop, in [0,1).
func (c *BeatClock) CurrentPhase() float64 {
	phase := math.Mod(c.CurrentBeat()/float64(c.BeatsPerLoop()), 1.0)
	if phase < 0 {
		phase += 1.0
	}
	return phase
}

// TimeForBeat returns the instant (past or future) at which the clock reads
// the given beat under the current tempo. Pre-scheduling starts against this
// instant is what removes timer-callback jitter from playback.
func (c *BeatClock) TimeForBeat(beat float64) time.Time {
	m := c.cur.Load()
	offset := (beat - m.originBeat) * m.secondsPerBeat
	return m.origin.Add(time.Duration(offset * float64(time.Second)))
}

// SetBPM changes the tempo. The origin is re-anchored to the beat reached
// under the old slope, so CurrentBeat is continuous across the change; only
// the rate of advance differs afterward.
func (c *BeatClock) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("invalid bpm: %v", bpm)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	old := c.cur.Load()
	c.cur.Store(&mapping{
		origin:         now,
		originBeat:     old.beatAt(now),
		bpm:            bpm,
		secondsPerBeat: 60.0 / bpm,
	})
	return nil
}

// BPM returns the current tempo.
func (c *BeatClock) BPM() float64 {
	return c.cur.Load().bpm
}

// SampleRate returns the session sample rate in Hz.
func (c *BeatClock) SampleRate() int {
	return c.sampleRate
}

func (c *BeatClock) BeatsPerBar() int {
	return c.beatsPerBar
}

func (c *BeatClock) BarsPerLoop() int {
	return c.barsPerLoop
}

// BeatsPerLoop returns the loop length in beats.
func (c *BeatClock) BeatsPerLoop() int {
	return c.beatsPerBar * c.barsPerLoop
}

// BeatsPerLoop computes the loop length of any Clock implementation.
func BeatsPerLoop(c Clock) int {
	return c.BeatsPerBar() * c.BarsPerLoop()
}
