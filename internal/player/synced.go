// ABOUTME: Tempo-locked loop player synchronized against the shared beat clock
// ABOUTME: Schedules beat-aligned starts and measures/corrects loop drift
package player

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
	"github.com/LoopSync-Audio/loopsync-go/internal/clock"
)

// DefaultDriftThreshold is the drift, in seconds, beyond which the periodic
// check hard-resyncs a player. 15ms sits under the audibility threshold for
// rhythmic displacement while leaving room for scheduling jitter.
const DefaultDriftThreshold = 0.015

// SyncedPlayer plays one loop phase-locked to the shared clock. It never
// mutates the clock; all of its own state changes happen on the control path.
type SyncedPlayer struct {
	sampleID    string
	sampleName  string
	originalBPM float64
	clk         clock.Clock
	voice       Voice

	mu        sync.Mutex
	playing   bool
	startBeat float64 // clock beat the current loop iteration is anchored to
}

// New creates a player for the sample and sets its initial playback rate
// from the clock's current tempo.
func New(engine Engine, sample *audio.Sample, clk clock.Clock) (*SyncedPlayer, error) {
	if sample.OriginalBPM <= 0 {
		return nil, fmt.Errorf("sample %q: invalid original BPM %v", sample.Name, sample.OriginalBPM)
	}

	voice, err := engine.NewVoice(sample)
	if err != nil {
		return nil, fmt.Errorf("sample %q: failed to create voice: %w", sample.Name, err)
	}

	p := &SyncedPlayer{
		sampleID:    sample.ID,
		sampleName:  sample.Name,
		originalBPM: sample.OriginalBPM,
		clk:         clk,
		voice:       voice,
	}
	p.AdjustPlaybackRate()
	return p, nil
}

// SampleID returns the player's sample identity.
func (p *SyncedPlayer) SampleID() string { return p.sampleID }

// SampleName returns the sample's display name, for diagnostics only.
func (p *SyncedPlayer) SampleName() string { return p.sampleName }

// OriginalBPM returns the tempo the sample's audio was authored at.
func (p *SyncedPlayer) OriginalBPM() float64 { return p.originalBPM }

// IsPlaying reports whether the player is in the Playing state.
func (p *SyncedPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// StartBeat returns the clock beat the player is anchored to. Only
// meaningful while playing.
func (p *SyncedPlayer) StartBeat() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startBeat
}

// RateMultiplier returns the playback-rate scale factor that matches the
// sample's native tempo to the clock's current tempo.
func (p *SyncedPlayer) RateMultiplier() float64 {
	return p.clk.BPM() / p.originalBPM
}

// AdjustPlaybackRate pushes the current rate multiplier to the engine voice.
// The player does not subscribe to the clock; the owner calls this after
// every tempo change.
func (p *SyncedPlayer) AdjustPlaybackRate() {
	p.voice.SetRate(p.RateMultiplier())
}

// ScheduleStart anchors the player at the given clock beat and instructs the
// engine to begin rendering exactly when the clock reaches it. Calling it
// while already playing re-anchors. On engine failure the player is left
// Stopped and the error surfaced; retrying is the owner's decision.
func (p *SyncedPlayer) ScheduleStart(beat float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scheduleStartLocked(beat)
}

func (p *SyncedPlayer) scheduleStartLocked(beat float64) error {
	at := p.clk.TimeForBeat(beat)
	if err := p.voice.StartAt(at); err != nil {
		p.playing = false
		return fmt.Errorf("sample %q: schedule at beat %.3f failed: %w", p.sampleName, beat, err)
	}

	p.startBeat = beat
	p.playing = true
	return nil
}

// Stop halts output immediately and invalidates any pending scheduled start.
func (p *SyncedPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.voice.Stop()
	p.playing = false
}

// CurrentPhase returns the player's position within its loop, in [0,1).
// Returns 0 when stopped.
func (p *SyncedPlayer) CurrentPhase() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return 0
	}

	loopBeats := float64(clock.BeatsPerLoop(p.clk))
	phase := math.Mod((p.clk.CurrentBeat()-p.startBeat)/loopBeats, 1.0)
	if phase < 0 {
		phase += 1.0
	}
	return phase
}

// CalculateDrift returns the discrepancy, in seconds, between the clock's
// loop position and the player's nominal loop position. Measured as the
// shortest arc around the loop, so it is bounded by half the loop length.
// Returns 0 when stopped.
func (p *SyncedPlayer) CalculateDrift() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.driftLocked()
}

func (p *SyncedPlayer) driftLocked() float64 {
	if !p.playing {
		return 0
	}

	loopBeats := float64(clock.BeatsPerLoop(p.clk))
	beat := p.clk.CurrentBeat()

	clockPos := math.Mod(beat, loopBeats)
	if clockPos < 0 {
		clockPos += loopBeats
	}
	playerPos := math.Mod(beat-p.startBeat, loopBeats)
	if playerPos < 0 {
		playerPos += loopBeats
	}

	diff := math.Abs(clockPos - playerPos)
	if diff > loopBeats/2 {
		diff = loopBeats - diff
	}

	return diff * 60.0 / p.clk.BPM()
}

// CorrectDriftIfNeeded hard-resyncs the player to the clock's present beat
// when drift exceeds the threshold, discarding its phase history. One brief
// re-trigger buys exact realignment; a gradual rate bend would risk audible
// pitch wobble and has no convergence bound. Returns whether a correction
// was applied.
func (p *SyncedPlayer) CorrectDriftIfNeeded(thresholdSeconds float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	drift := p.driftLocked()
	if drift <= thresholdSeconds {
		return false
	}

	if err := p.scheduleStartLocked(p.clk.CurrentBeat()); err != nil {
		// No error channel here: the player is stopped and the next
		// periodic check or explicit start picks it back up.
		log.Printf("Drift correction resync failed for %s: %v", p.sampleName, err)
	}
	return true
}

// Close stops the player and releases its engine voice.
func (p *SyncedPlayer) Close() error {
	p.Stop()
	return p.voice.Close()
}
