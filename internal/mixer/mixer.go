// ABOUTME: Orchestrator owning the shared clock and the set of synced players
// ABOUTME: Issues transport and tempo changes and drives periodic drift checks
package mixer

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
	"github.com/LoopSync-Audio/loopsync-go/internal/clock"
	"github.com/LoopSync-Audio/loopsync-go/internal/player"
	"github.com/google/uuid"
)

// DefaultDriftInterval is the cadence of the periodic drift check. Low
// frequency on purpose: the check runs on the control path, never per
// audio buffer.
const DefaultDriftInterval = 500 * time.Millisecond

// TempoClock is a Clock whose tempo the mixer may mutate. The mixer is the
// single writer; players only read.
type TempoClock interface {
	clock.Clock
	SetBPM(bpm float64) error
}

// Config holds mixer tuning.
type Config struct {
	DriftThreshold float64       // seconds; 0 means player.DefaultDriftThreshold
	DriftInterval  time.Duration // 0 means DefaultDriftInterval
}

// Mixer owns the active mix: one shared clock, one player per sample.
type Mixer struct {
	clk    TempoClock
	engine player.Engine
	config Config

	mu      sync.Mutex
	players map[string]*player.SyncedPlayer
	order   []string // insertion order, for stable snapshots
	running bool     // transport state
}

// PlayerStatus is one player's view in a mix snapshot.
type PlayerStatus struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	OriginalBPM  float64 `json:"original_bpm"`
	Rate         float64 `json:"rate"`
	Playing      bool    `json:"playing"`
	StartBeat    float64 `json:"start_beat"`
	Phase        float64 `json:"phase"`
	DriftSeconds float64 `json:"drift_seconds"`
}

// Status is a point-in-time snapshot of the whole mix.
type Status struct {
	BPM     float64        `json:"bpm"`
	Beat    float64        `json:"beat"`
	Phase   float64        `json:"phase"`
	Playing bool           `json:"playing"`
	Players []PlayerStatus `json:"players"`
}

// New creates a mixer around the shared clock and playback engine.
func New(clk TempoClock, engine player.Engine, config Config) *Mixer {
	if config.DriftThreshold == 0 {
		config.DriftThreshold = player.DefaultDriftThreshold
	}
	if config.DriftInterval == 0 {
		config.DriftInterval = DefaultDriftInterval
	}

	return &Mixer{
		clk:     clk,
		engine:  engine,
		config:  config,
		players: make(map[string]*player.SyncedPlayer),
	}
}

// Clock returns the shared clock for read-only queries.
func (m *Mixer) Clock() clock.Clock {
	return m.clk
}

// Add creates a player for the sample and adds it to the mix. Samples
// without an ID get one assigned. If the transport is running the new
// player is scheduled to start at the next loop boundary.
func (m *Mixer) Add(sample *audio.Sample) (*player.SyncedPlayer, error) {
	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[sample.ID]; exists {
		return nil, fmt.Errorf("sample %s already in mix", sample.ID)
	}

	p, err := player.New(m.engine, sample, m.clk)
	if err != nil {
		return nil, err
	}

	m.players[sample.ID] = p
	m.order = append(m.order, sample.ID)
	log.Printf("Added to mix: %s", sample)

	if m.running {
		if err := p.ScheduleStart(m.nextLoopBoundary()); err != nil {
			log.Printf("Late join start failed: %v", err)
		}
	}

	return p, nil
}

// Remove stops a player, releases its voice, and drops it from the mix.
func (m *Mixer) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("no such player: %s", id)
	}

	if err := p.Close(); err != nil {
		log.Printf("Error closing player %s: %v", p.SampleName(), err)
	}
	delete(m.players, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	log.Printf("Removed from mix: %s", p.SampleName())
	return nil
}

// nextLoopBoundary returns the first beat at or after now that lands on the
// loop grid. Launching on the grid keeps the players' loop positions
// coincident with the clock's, which is what the drift measurement compares.
func (m *Mixer) nextLoopBoundary() float64 {
	loopBeats := float64(clock.BeatsPerLoop(m.clk))
	return math.Ceil(m.clk.CurrentBeat()/loopBeats) * loopBeats
}

// PlayAll starts every player in the mix against one shared target beat —
// the next loop boundary — so all loops land on the same beat-grid instant
// regardless of per-player call overhead. A player's schedule failure is
// logged and isolated; its siblings start regardless.
func (m *Mixer) PlayAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.nextLoopBoundary()
	for _, id := range m.order {
		if err := m.players[id].ScheduleStart(target); err != nil {
			log.Printf("Schedule failed: %v", err)
		}
	}
	m.running = true

	log.Printf("Transport started: %d players at beat %.3f", len(m.players), target)
}

// StopAll halts every player immediately.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		m.players[id].Stop()
	}
	m.running = false

	log.Printf("Transport stopped")
}

// Stop halts one player without touching its siblings.
func (m *Mixer) Stop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("no such player: %s", id)
	}
	p.Stop()
	return nil
}

// SetTempo mutates the shared clock and rebroadcasts the rate multiplier to
// every player. Players are not re-anchored here; the periodic drift check
// is the safety net for any phase error the change exposes.
func (m *Mixer) SetTempo(bpm float64) error {
	if err := m.clk.SetBPM(bpm); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		m.players[id].AdjustPlaybackRate()
	}

	log.Printf("Tempo set to %.1f BPM across %d players", bpm, len(m.players))
	return nil
}

// Playing reports the transport state.
func (m *Mixer) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Run drives the periodic drift check until the context is cancelled.
func (m *Mixer) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.DriftInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckDrift()
		}
	}
}

// CheckDrift runs one drift-correction pass over the mix and returns how
// many players were resynced.
func (m *Mixer) CheckDrift() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	corrected := 0
	for _, id := range m.order {
		p := m.players[id]
		drift := p.CalculateDrift()
		if p.CorrectDriftIfNeeded(m.config.DriftThreshold) {
			corrected++
			log.Printf("Drift correction: %s resynced (%.1fms drift)", p.SampleName(), drift*1000)
		}
	}
	return corrected
}

// Snapshot reports the mix state for diagnostics and the control surface.
func (m *Mixer) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		BPM:     m.clk.BPM(),
		Beat:    m.clk.CurrentBeat(),
		Phase:   m.clk.CurrentPhase(),
		Playing: m.running,
		Players: make([]PlayerStatus, 0, len(m.order)),
	}

	for _, id := range m.order {
		p := m.players[id]
		status.Players = append(status.Players, PlayerStatus{
			ID:           p.SampleID(),
			Name:         p.SampleName(),
			OriginalBPM:  p.OriginalBPM(),
			Rate:         p.RateMultiplier(),
			Playing:      p.IsPlaying(),
			StartBeat:    p.StartBeat(),
			Phase:        p.CurrentPhase(),
			DriftSeconds: p.CalculateDrift(),
		})
	}

	return status
}

// Close stops everything and releases all voices.
func (m *Mixer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		if err := m.players[id].Close(); err != nil {
			log.Printf("Error closing player: %v", err)
		}
	}
	m.players = make(map[string]*player.SyncedPlayer)
	m.order = nil
	m.running = false
}
