// Package reconcile drives the payment saga for placed orders. Each
// delivery runs a bounded retry loop against the payment authority and ends
// in exactly one acknowledgment, unless shutdown interrupts it first, in
// which case the delivery stays unacked for broker redelivery. Broker
// redelivery is not a retry mechanism here; retries happen in-process.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
	"github.com/streadway/amqp"
)

// Outcome is the terminal state of one delivery.
type Outcome string

const (
	// OutcomeSettled means the authority confirmed payment.
	OutcomeSettled Outcome = "SETTLED"
	// OutcomeDropped means the event was unusable: malformed body or no
	// extractable order id. Redelivery cannot fix such an event.
	OutcomeDropped Outcome = "DROPPED"
	// OutcomeExhausted means every attempt failed and the compensating
	// PAYMENT_FAILED write was issued.
	OutcomeExhausted Outcome = "EXHAUSTED"
	// OutcomeInterrupted means shutdown arrived before the saga reached a
	// terminal state. The delivery stays unacked so the broker redelivers
	// it; payment idempotency makes the replay safe.
	OutcomeInterrupted Outcome = "INTERRUPTED"
)

// compensateTimeout bounds the PAYMENT_FAILED write once retries are
// exhausted. The write runs detached from the delivery context so shutdown
// cannot cancel it mid-flight.
const compensateTimeout = 5 * time.Second

type paymentCaller interface {
	Charge(ctx context.Context, orderID int64) error
}

type statusWriter interface {
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
}

type auditEmitter interface {
	Emit(entry logsink.Entry)
}

// Worker processes order placed deliveries one at a time.
type Worker struct {
	payments paymentCaller
	orders   statusWriter
	audit    auditEmitter
	logg     *logger.Logger
	cfg      config.SagaConfig
	sleep    func(ctx context.Context, d time.Duration)
}

// Option adjusts worker construction.
type Option func(*Worker)

// WithSleep replaces the backoff sleep. Tests use it to record delays
// instead of waiting them out.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(w *Worker) {
		w.sleep = sleep
	}
}

// NewWorker constructs a reconciliation worker.
func NewWorker(payments paymentCaller, orders statusWriter, audit auditEmitter, cfg config.SagaConfig, logg *logger.Logger, opts ...Option) (*Worker, error) {
	if payments == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 3 * time.Second
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 2.0
	}
	w := &Worker{
		payments: payments,
		orders:   orders,
		audit:    audit,
		logg:     logg,
		cfg:      cfg,
		sleep:    sleepWithContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// HandleDelivery runs one delivery to a terminal state and acknowledges it.
// An interrupted delivery is the one exception: it stays unacked so the
// broker hands it to the next worker. Every other outcome is acked, and a
// crash before the ack means redelivery restarts the whole attempt
// sequence, which is safe because payment is idempotent.
func (w *Worker) HandleDelivery(ctx context.Context, delivery amqp.Delivery) Outcome {
	outcome := w.process(ctx, delivery.Body)
	if outcome == OutcomeInterrupted {
		return outcome
	}
	if err := delivery.Ack(false); err != nil {
		errCtx := w.logg.WithField(ctx, "error", err.Error())
		w.logg.Error(errCtx, "delivery ack failed", err)
	}
	return outcome
}

func (w *Worker) process(ctx context.Context, body []byte) Outcome {
	// Audited on receipt, before decoding: dropped events leave a trail too.
	w.emit("order_received", map[string]any{"payload": string(body)})

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		errCtx := w.logg.WithField(ctx, "error", err.Error())
		w.logg.Warn(errCtx, "dropping malformed event body")
		return OutcomeDropped
	}

	orderID, ok := extractOrderID(decoded)
	if !ok {
		w.logg.Warn(ctx, "dropping event without an extractable order id")
		return OutcomeDropped
	}

	ctx = w.logg.WithOrderID(ctx, orderID)

	backoff := w.cfg.InitialBackoff
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			w.logg.Warn(ctx, "shutdown before payment attempt; leaving delivery unacked")
			return OutcomeInterrupted
		}

		attemptCtx := w.logg.WithField(ctx, "attempt", attempt)

		err := w.charge(ctx, orderID)
		if err == nil {
			w.logg.Info(attemptCtx, "payment confirmed; saga settled")
			w.emit("payment_settled", map[string]any{"order_id": orderID, "attempt": attempt})
			return OutcomeSettled
		}
		if ctx.Err() != nil {
			w.logg.Warn(attemptCtx, "shutdown during payment attempt; leaving delivery unacked")
			return OutcomeInterrupted
		}

		attemptCtx = w.logg.WithField(attemptCtx, "error", err.Error())
		if attempt == w.cfg.MaxAttempts {
			w.logg.Warn(attemptCtx, "payment attempt failed; retry budget exhausted")
			break
		}
		w.logg.Warn(attemptCtx, "payment attempt failed; backing off")
		w.sleep(ctx, backoff)
		backoff = time.Duration(float64(backoff) * w.cfg.BackoffMultiplier)
	}

	w.compensate(ctx, orderID)
	return OutcomeExhausted
}

func (w *Worker) charge(ctx context.Context, orderID int64) error {
	callCtx := ctx
	if w.cfg.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.cfg.PaymentTimeout)
		defer cancel()
	}
	return w.payments.Charge(callCtx, orderID)
}

// compensate records PAYMENT_FAILED. The write runs on a context detached
// from the delivery so a shutdown mid-write cannot cancel it. A failed
// write is logged only; the delivery is acknowledged regardless, so the
// order can stay PENDING_PAYMENT until an operator or a later event
// reprocesses it.
func (w *Worker) compensate(ctx context.Context, orderID int64) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	if err := w.orders.UpdateStatus(writeCtx, orderID, enums.OrderStatusPaymentFailed); err != nil {
		errCtx := w.logg.WithField(ctx, "error", err.Error())
		w.logg.Error(errCtx, "compensating PAYMENT_FAILED write failed", err)
	} else {
		w.logg.Warn(ctx, "order marked PAYMENT_FAILED after exhausting retries")
	}
	w.emit("payment_exhausted", map[string]any{"order_id": orderID})
}

func (w *Worker) emit(event string, fields map[string]any) {
	if w.audit == nil {
		return
	}
	entry := logsink.Entry{
		"service": "worker",
		"event":   event,
	}
	for k, v := range fields {
		entry[k] = v
	}
	w.audit.Emit(entry)
}
