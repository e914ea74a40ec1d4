// ABOUTME: Playback engine capability interfaces
// ABOUTME: Defines the engine-level contract SyncedPlayer drives
package player

import (
	"time"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
)

// Voice is one engine-level looped playback channel. StartAt and Stop are
// control-path calls; SetRate publishes a value the render path reads.
type Voice interface {
	// StartAt restarts the loop from its beginning at the given instant,
	// which may be in the future. A pending start from a previous call is
	// replaced. The returned error is terminal for this attempt; the engine
	// does not retry.
	StartAt(t time.Time) error

	// Stop halts output immediately and suppresses any still-pending
	// scheduled start.
	Stop()

	// SetRate sets the resampling ratio applied to the loop's native rate.
	SetRate(rate float64)

	// Close releases the voice's engine resources.
	Close() error
}

// Engine creates voices for decoded samples.
type Engine interface {
	NewVoice(sample *audio.Sample) (Voice, error)
}
