// ABOUTME: Deterministic manually-advanced clock for tests
// ABOUTME: Implements the Clock interface without reading real time
package clock

import (
	"fmt"
	"math"
	"time"
)

// ManualClock is a Clock whose beat position only moves when the test says
// so. TimeForBeat is computed against a fixed base instant, so scheduling
// math stays deterministic.
type ManualClock struct {
	beat        float64
	bpm         float64
	beatsPerBar int
	barsPerLoop int
	base        time.Time // instant corresponding to the current beat
}

// NewManualClock creates a stopped test clock at beat 0.
func NewManualClock(bpm float64, beatsPerBar, barsPerLoop int) *ManualClock {
	return &ManualClock{
		bpm:         bpm,
		beatsPerBar: beatsPerBar,
		barsPerLoop: barsPerLoop,
		base:        time.Unix(0, 0),
	}
}

func (c *ManualClock) CurrentBeat() float64 {
	return c.beat
}

func (c *ManualClock) CurrentPhase() float64 {
	phase := math.Mod(c.beat/float64(BeatsPerLoop(c)), 1.0)
	if phase < 0 {
		phase += 1.0
	}
	return phase
}

func (c *ManualClock) TimeForBeat(beat float64) time.Time {
	offset := (beat - c.beat) * 60.0 / c.bpm
	return c.base.Add(time.Duration(offset * float64(time.Second)))
}

func (c *ManualClock) BPM() float64 {
	return c.bpm
}

func (c *ManualClock) BeatsPerBar() int {
	return c.beatsPerBar
}

func (c *ManualClock) BarsPerLoop() int {
	return c.barsPerLoop
}

// SetBeat jumps the clock to an absolute beat position.
func (c *ManualClock) SetBeat(beat float64) {
	c.beat = beat
}

// Advance moves the clock forward by the given number of beats.
func (c *ManualClock) Advance(beats float64) {
	c.beat += beats
}

// SetBPM changes the tempo without moving the beat position.
func (c *ManualClock) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("invalid bpm: %v", bpm)
	}
	c.bpm = bpm
	return nil
}
