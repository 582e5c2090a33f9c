package reconcile

import (
	"context"
	"time"

	"github.com/streadway/amqp"
)

// DeliverySource is the subset of the broker client the run loop needs.
type DeliverySource interface {
	Consume() (<-chan amqp.Delivery, error)
	NotifyClose() <-chan *amqp.Error
	Close() error
}

// DialFunc establishes a fresh broker session, declaring topology.
type DialFunc func(ctx context.Context) (DeliverySource, error)

// Run consumes deliveries until the context is canceled. Connection loss is
// never fatal: the loop waits reconnectDelay and dials again, indefinitely.
func (w *Worker) Run(ctx context.Context, dial DialFunc, reconnectDelay time.Duration) error {
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		source, err := dial(ctx)
		if err != nil {
			errCtx := w.logg.WithField(ctx, "error", err.Error())
			w.logg.Warn(errCtx, "broker dial failed; retrying")
			w.sleep(ctx, reconnectDelay)
			continue
		}

		w.consumeUntilClosed(ctx, source)
		_ = source.Close()

		if ctx.Err() == nil {
			w.logg.Warn(ctx, "broker session ended; reconnecting")
			w.sleep(ctx, reconnectDelay)
		}
	}
}

func (w *Worker) consumeUntilClosed(ctx context.Context, source DeliverySource) {
	deliveries, err := source.Consume()
	if err != nil {
		errCtx := w.logg.WithField(ctx, "error", err.Error())
		w.logg.Warn(errCtx, "consume setup failed")
		return
	}
	closed := source.NotifyClose()

	for {
		select {
		case <-ctx.Done():
			return
		case amqpErr := <-closed:
			if amqpErr != nil {
				errCtx := w.logg.WithField(ctx, "error", amqpErr.Error())
				w.logg.Warn(errCtx, "broker connection lost")
			}
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			w.HandleDelivery(ctx, delivery)
		}
	}
}
