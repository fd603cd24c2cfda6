package realtime

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// HandlerFunc consumes one event's payload.
type HandlerFunc func(data json.RawMessage)

// Dispatcher applies inbound events to registered handlers on a single
// goroutine, one event at a time, in arrival order. This mirrors the
// run-to-completion model the reconciliation logic assumes: no handler ever
// observes a half-applied event.
type Dispatcher struct {
	handlers map[string][]HandlerFunc
	jobs     chan func()
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		jobs:     make(chan func(), 64),
	}
}

// Post schedules fn to run on the dispatch goroutine. Timer callbacks and
// other off-loop goroutines use it so state mutations never race the event
// handlers. The send never blocks: the dispatch goroutine itself may Post
// from inside a handler.
func (d *Dispatcher) Post(fn func()) {
	select {
	case d.jobs <- fn:
	default:
		log.Warn().Msg("dispatch job queue full, job dropped")
	}
}

// On registers a handler for an event name. Registration is not safe
// concurrently with Run; wire everything up first.
func (d *Dispatcher) On(event string, fn HandlerFunc) {
	d.handlers[event] = append(d.handlers[event], fn)
}

// Dispatch invokes the handlers for one envelope.
func (d *Dispatcher) Dispatch(env Envelope) {
	fns, ok := d.handlers[env.Event]
	if !ok {
		log.Debug().Str("event", env.Event).Msg("no handler for event")
		return
	}
	for _, fn := range fns {
		fn(env.Data)
	}
}

// Run consumes events from the source and posted jobs until the context is
// cancelled or the source closes its stream. A source whose Receive returns
// a nil channel never closes, so Run keeps serving jobs when the transport
// is down.
func (d *Dispatcher) Run(ctx context.Context, src EventSource) {
	log.Info().Msg("event dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event dispatcher shutting down")
			return
		case fn := <-d.jobs:
			fn()
		case env, ok := <-src.Receive():
			if !ok {
				log.Info().Msg("event source closed")
				return
			}
			d.Dispatch(env)
		}
	}
}
