package queue

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// releaseDelay is how long after the last interaction signal the guard waits
// before flushing buffered updates. Long enough to cover a dropdown pick,
// short enough that the view never feels stale.
const releaseDelay = 300 * time.Millisecond

// Guard buffers queue re-renders while the user is interacting with a
// moderation control. Rebuilding the list mid-interaction would close an
// open dropdown or steal focus, so incoming payloads are parked and only the
// newest one is applied once the interaction settles.
type Guard struct {
	clock clockwork.Clock
	apply func(StatePayload)

	mu      sync.Mutex
	busy    bool
	pending *StatePayload
	timer   clockwork.Timer
}

// NewGuard wraps an apply function with interaction buffering.
func NewGuard(clock clockwork.Clock, apply func(StatePayload)) *Guard {
	return &Guard{clock: clock, apply: apply}
}

// Apply renders a payload immediately, or parks it if an interaction is in
// progress. Parked payloads overwrite each other; only the newest survives.
func (g *Guard) Apply(p StatePayload) {
	g.mu.Lock()
	if g.busy {
		g.pending = &p
		g.mu.Unlock()
		log.Debug().Msg("queue update buffered during interaction")
		return
	}
	g.mu.Unlock()
	g.apply(p)
}

// InteractionStart marks the beginning of a user interaction (pointer down,
// focus in). Any pending release timer is cancelled.
func (g *Guard) InteractionStart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// InteractionEnd signals the interaction may be over (pointer up, focus out,
// change). The guard releases after a quiet period; a new signal resets it.
func (g *Guard) InteractionEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = g.clock.AfterFunc(releaseDelay, g.release)
}

func (g *Guard) release() {
	g.mu.Lock()
	g.busy = false
	g.timer = nil
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending != nil {
		g.apply(*pending)
	}
}

// Busy reports whether an interaction is currently holding renders.
func (g *Guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}
