package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acks  int
	nacks int
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(uint64, bool, bool) error {
	a.nacks++
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error {
	a.nacks++
	return nil
}

type stubPayments struct {
	mu      sync.Mutex
	errs    []error
	charges int
	lastErr error
}

func (p *stubPayments) Charge(context.Context, int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.charges < len(p.errs) {
		err = p.errs[p.charges]
	} else {
		err = p.lastErr
	}
	p.charges++
	return err
}

func (p *stubPayments) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.charges
}

type stubOrders struct {
	writes []enums.OrderStatus
	err    error
}

func (o *stubOrders) UpdateStatus(_ context.Context, _ int64, status enums.OrderStatus) error {
	if o.err != nil {
		return o.err
	}
	o.writes = append(o.writes, status)
	return nil
}

func newTestWorker(t *testing.T, payments *stubPayments, orders *stubOrders, slept *[]time.Duration) *Worker {
	t.Helper()
	w, err := NewWorker(
		payments,
		orders,
		nil,
		config.SagaConfig{MaxAttempts: 3, InitialBackoff: 3 * time.Second, BackoffMultiplier: 2.0},
		logger.New(logger.Options{ServiceName: "worker-test"}),
		WithSleep(func(_ context.Context, d time.Duration) {
			if slept != nil {
				*slept = append(*slept, d)
			}
		}),
	)
	require.NoError(t, err)
	return w
}

func delivery(body string, ack *fakeAcknowledger) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body)}
}

func TestHandleDeliverySettlesOnFirstSuccess(t *testing.T) {
	payments := &stubPayments{}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	w := newTestWorker(t, payments, orders, nil)

	outcome := w.HandleDelivery(context.Background(), delivery(`{"order":{"id":7}}`, ack))

	assert.Equal(t, OutcomeSettled, outcome)
	assert.Equal(t, 1, payments.calls())
	assert.Empty(t, orders.writes)
	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
}

func TestHandleDeliveryExhaustsThenCompensates(t *testing.T) {
	payments := &stubPayments{lastErr: errors.New("payment declined")}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	var slept []time.Duration
	w := newTestWorker(t, payments, orders, &slept)

	outcome := w.HandleDelivery(context.Background(), delivery(`{"order":{"id":7}}`, ack))

	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, 3, payments.calls())
	require.Len(t, orders.writes, 1)
	assert.Equal(t, enums.OrderStatusPaymentFailed, orders.writes[0])
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, slept)
}

func TestHandleDeliveryRecoversOnLaterAttempt(t *testing.T) {
	payments := &stubPayments{errs: []error{errors.New("timeout"), nil}}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	var slept []time.Duration
	w := newTestWorker(t, payments, orders, &slept)

	outcome := w.HandleDelivery(context.Background(), delivery(`{"order":{"id":7}}`, ack))

	assert.Equal(t, OutcomeSettled, outcome)
	assert.Equal(t, 2, payments.calls())
	assert.Empty(t, orders.writes)
	assert.Equal(t, []time.Duration{3 * time.Second}, slept)
	assert.Equal(t, 1, ack.acks)
}

func TestHandleDeliveryDropsMalformedBody(t *testing.T) {
	payments := &stubPayments{}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	w := newTestWorker(t, payments, orders, nil)

	outcome := w.HandleDelivery(context.Background(), delivery(`not json`, ack))

	assert.Equal(t, OutcomeDropped, outcome)
	assert.Zero(t, payments.calls())
	assert.Empty(t, orders.writes)
	assert.Equal(t, 1, ack.acks)
}

func TestHandleDeliveryDropsEventWithoutID(t *testing.T) {
	payments := &stubPayments{}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	w := newTestWorker(t, payments, orders, nil)

	outcome := w.HandleDelivery(context.Background(), delivery(`{"foo":"bar"}`, ack))

	assert.Equal(t, OutcomeDropped, outcome)
	assert.Zero(t, payments.calls())
	assert.Equal(t, 1, ack.acks)
}

func TestHandleDeliveryLeavesCanceledDeliveryUnacked(t *testing.T) {
	payments := &stubPayments{lastErr: errors.New("payment declined")}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	var slept []time.Duration
	w := newTestWorker(t, payments, orders, &slept)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := w.HandleDelivery(ctx, delivery(`{"order":{"id":7}}`, ack))

	assert.Equal(t, OutcomeInterrupted, outcome)
	assert.Zero(t, payments.calls())
	assert.Empty(t, orders.writes)
	assert.Empty(t, slept)
	assert.Zero(t, ack.acks)
	assert.Zero(t, ack.nacks)
}

func TestHandleDeliveryStopsRetryingOnShutdown(t *testing.T) {
	payments := &stubPayments{lastErr: errors.New("payment declined")}
	orders := &stubOrders{}
	ack := &fakeAcknowledger{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := NewWorker(
		payments,
		orders,
		nil,
		config.SagaConfig{MaxAttempts: 3, InitialBackoff: 3 * time.Second, BackoffMultiplier: 2.0},
		logger.New(logger.Options{ServiceName: "worker-test"}),
		WithSleep(func(context.Context, time.Duration) {
			cancel()
		}),
	)
	require.NoError(t, err)

	outcome := w.HandleDelivery(ctx, delivery(`{"order":{"id":7}}`, ack))

	assert.Equal(t, OutcomeInterrupted, outcome)
	assert.Equal(t, 1, payments.calls())
	assert.Empty(t, orders.writes)
	assert.Zero(t, ack.acks)
}

type cancelingOrders struct {
	cancel context.CancelFunc
	ctxErr error
	writes []enums.OrderStatus
}

func (o *cancelingOrders) UpdateStatus(ctx context.Context, _ int64, status enums.OrderStatus) error {
	o.cancel()
	o.ctxErr = ctx.Err()
	o.writes = append(o.writes, status)
	return nil
}

func TestCompensatingWriteOutlivesShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	payments := &stubPayments{lastErr: errors.New("payment declined")}
	orders := &cancelingOrders{cancel: cancel}
	ack := &fakeAcknowledger{}
	w, err := NewWorker(
		payments,
		orders,
		nil,
		config.SagaConfig{MaxAttempts: 3, InitialBackoff: 3 * time.Second, BackoffMultiplier: 2.0},
		logger.New(logger.Options{ServiceName: "worker-test"}),
		WithSleep(func(context.Context, time.Duration) {}),
	)
	require.NoError(t, err)

	outcome := w.HandleDelivery(ctx, delivery(`{"order":{"id":7}}`, ack))

	assert.Equal(t, OutcomeExhausted, outcome)
	require.Len(t, orders.writes, 1)
	assert.Equal(t, enums.OrderStatusPaymentFailed, orders.writes[0])
	assert.NoError(t, orders.ctxErr)
	assert.Equal(t, 1, ack.acks)
}

type stubAudit struct {
	mu      sync.Mutex
	entries []logsink.Entry
}

func (a *stubAudit) Emit(entry logsink.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *stubAudit) events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		name, _ := entry["event"].(string)
		names = append(names, name)
	}
	return names
}

func TestHandleDeliveryAuditsEveryReceivedEvent(t *testing.T) {
	payments := &stubPayments{}
	orders := &stubOrders{}
	audit := &stubAudit{}
	ack := &fakeAcknowledger{}
	w, err := NewWorker(
		payments,
		orders,
		audit,
		config.SagaConfig{MaxAttempts: 3, InitialBackoff: 3 * time.Second, BackoffMultiplier: 2.0},
		logger.New(logger.Options{ServiceName: "worker-test"}),
		WithSleep(func(context.Context, time.Duration) {}),
	)
	require.NoError(t, err)

	w.HandleDelivery(context.Background(), delivery(`{"foo":"bar"}`, ack))
	assert.Equal(t, []string{"order_received"}, audit.events())

	w.HandleDelivery(context.Background(), delivery(`not json`, ack))
	assert.Equal(t, []string{"order_received", "order_received"}, audit.events())

	w.HandleDelivery(context.Background(), delivery(`{"order":{"id":7}}`, ack))
	assert.Equal(t, []string{"order_received", "order_received", "order_received", "payment_settled"}, audit.events())
}

func TestHandleDeliveryAcksWhenCompensationFails(t *testing.T) {
	payments := &stubPayments{lastErr: errors.New("payment declined")}
	orders := &stubOrders{err: errors.New("order service down")}
	ack := &fakeAcknowledger{}
	var slept []time.Duration
	w := newTestWorker(t, payments, orders, &slept)

	outcome := w.HandleDelivery(context.Background(), delivery(`{"order_id":7}`, ack))

	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, 1, ack.acks)
}
