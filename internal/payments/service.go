package payments

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
	"github.com/lucasfarias/orderflow-backend/pkg/orderclient"
)

// Service decides payment outcomes for orders.
type Service interface {
	ProcessPayment(ctx context.Context, orderID int64) enums.PaymentResult
}

type orderStore interface {
	Get(ctx context.Context, orderID int64) (*orderclient.OrderView, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
}

type auditEmitter interface {
	Emit(entry logsink.Entry)
}

// service implements the simulated payment authority.
type service struct {
	orders      orderStore
	audit       auditEmitter
	logg        *logger.Logger
	successRate float64
	draw        func() float64
}

// Option adjusts service construction. Used by tests to pin the random draw.
type Option func(*service)

// WithDraw replaces the uniform random source.
func WithDraw(draw func() float64) Option {
	return func(s *service) {
		s.draw = draw
	}
}

// NewService constructs a payment service instance.
func NewService(orders orderStore, audit auditEmitter, cfg config.PaymentConfig, logg *logger.Logger, opts ...Option) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &service{
		orders:      orders,
		audit:       audit,
		logg:        logg,
		successRate: cfg.SuccessRate,
		draw:        rand.Float64,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ProcessPayment settles the order. Orders already PAID succeed with no
// write; any read failure fails the attempt because the authority never
// guesses state it cannot observe. The read and the write are not atomic,
// so two concurrent calls can both observe non-PAID and both write PAID.
// The end value is the same either way.
func (s *service) ProcessPayment(ctx context.Context, orderID int64) enums.PaymentResult {
	ctx = s.logg.WithOrderID(ctx, orderID)

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
		s.logg.Warn(ctx, "order read failed; refusing payment")
		s.emit(orderID, enums.PaymentResultFailed, "read_failed")
		return enums.PaymentResultFailed
	}

	if order.Status == enums.OrderStatusPaid {
		s.logg.Info(ctx, "order already PAID; idempotent success")
		s.emit(orderID, enums.PaymentResultSuccess, "already_paid")
		return enums.PaymentResultSuccess
	}

	if s.draw() >= s.successRate {
		s.logg.Info(ctx, "simulated gateway declined payment")
		s.emit(orderID, enums.PaymentResultFailed, "declined")
		return enums.PaymentResultFailed
	}

	if err := s.orders.UpdateStatus(ctx, orderID, enums.OrderStatusPaid); err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
		s.logg.Warn(ctx, "PAID write failed; success not honored")
		s.emit(orderID, enums.PaymentResultFailed, "write_failed")
		return enums.PaymentResultFailed
	}

	s.logg.Info(ctx, "payment settled; order marked PAID")
	s.emit(orderID, enums.PaymentResultSuccess, "settled")
	return enums.PaymentResultSuccess
}

func (s *service) emit(orderID int64, result enums.PaymentResult, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(logsink.Entry{
		"service":  "payments",
		"event":    "process_payment",
		"order_id": orderID,
		"result":   result,
		"reason":   reason,
	})
}
