package session

import (
	"context"
	"log/slog"

	"github.com/rateshub/rates-data/internal/pubsub"
)

// forwarder pumps one subscription's queue onto the transport until
// stopped. stop is cooperative: it signals cancellation and then waits
// for the goroutine to finish, releasing the subscription on the way out.
type forwarder struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startForwarder(parent context.Context, sub *pubsub.Subscription, hub Hub, transport Transport, logger *slog.Logger) *forwarder {
	ctx, cancel := context.WithCancel(parent)
	f := &forwarder{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		defer hub.Unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return
			case point := <-sub.Points():
				data, err := encodePoint(point)
				if err != nil {
					logger.Error("encode point failed", "error", err)
					continue
				}
				if err := transport.Send(data); err != nil {
					logger.Debug("forwarding send failed", "error", err)
					return
				}
			}
		}
	}()

	return f
}

// stop cancels the forwarding task and waits for it to terminate.
func (f *forwarder) stop() {
	f.cancel()
	<-f.done
}
