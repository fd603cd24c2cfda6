package queue

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/clients"
)

const pollInterval = 2 * time.Second

// Poller periodically fetches the public queue snapshot over REST. It is the
// fallback transport for clients without a live socket subscription; the sink
// receives every successfully fetched payload.
type Poller struct {
	client *clients.BaseClient
	clock  clockwork.Clock
	sink   func(StatePayload)
}

func NewPoller(client *clients.BaseClient, clock clockwork.Clock, sink func(StatePayload)) *Poller {
	return &Poller{
		client: client,
		clock:  clock,
		sink:   sink,
	}
}

// Run polls until ctx is cancelled. Transient fetch errors are logged and
// the previous snapshot stays in place until the next tick succeeds.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := p.clock.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	var payload StatePayload
	if err := p.client.GetJSON(ctx, "/api/queue", &payload); err != nil {
		log.Debug().Err(err).Msg("Queue poll failed, keeping previous snapshot")
		return
	}
	p.sink(payload)
}
