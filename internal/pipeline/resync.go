package pipeline

import (
	"context"

	"github.com/labstack/gommon/log"
	"github.com/EzRa021/Muhu-voice-app/internal/relay"
)

// Resync drains the outbox through the pipeline when connectivity returns.
// It runs only on the edge into the connected state, never on a timer, and
// replays strictly in insertion order: one message must reach a terminal or
// retry-eligible status before the next attempt starts.
type Resync struct {
	outbox   Outbox
	relay    Relay
	pipeline *Pipeline
}

func NewResync(ob Outbox, rl Relay, p *Pipeline) *Resync {
	return &Resync{outbox: ob, relay: rl, pipeline: p}
}

// Run blocks until ctx is cancelled, draining on every transition into
// connected. Meant to be run on its own goroutine.
func (r *Resync) Run(ctx context.Context) {
	transitions, unsubscribe := r.relay.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-transitions:
			if t.To != relay.StateConnected {
				continue
			}
			r.drain(ctx)
		}
	}
}

func (r *Resync) drain(ctx context.Context) {
	queued, err := r.outbox.ListAll()
	if err != nil {
		log.Errorf("listing outbox: %v", err)
		return
	}
	if len(queued) == 0 {
		return
	}

	log.Infof("replaying %d queued messages", len(queued))
	for _, message := range queued {
		if r.relay.State() != relay.StateConnected {
			// lost the connection mid-drain; the rest stays queued for
			// the next edge
			return
		}
		if err := r.pipeline.Send(ctx, message); err != nil {
			log.Warnf("replaying %s: %v", message.ID, err)
		}
		if message.Status.RetryEligible() {
			log.Infof("message %s still queued (%s)", message.ID, message.Status)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
