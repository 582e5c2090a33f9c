package orders

import (
	"context"
	"fmt"

	"github.com/lucasfarias/orderflow-backend/pkg/db/models"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
	"github.com/lucasfarias/orderflow-backend/pkg/events"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
)

// Service exposes order placement and read operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error)
	GetOrder(ctx context.Context, id int64, requesterID string, isAdmin bool) (*OrderSummary, error)
	ListMyOrders(ctx context.Context, userID string) ([]OrderSummary, error)
	ListAllOrders(ctx context.Context) ([]OrderSummary, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*OrderSummary, error)
}

// EventPublisher sends domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, payload any) error
}

type auditEmitter interface {
	Emit(entry logsink.Entry)
}

// service implements the order service.
type service struct {
	repo      Repository
	publisher EventPublisher
	audit     auditEmitter
	logg      *logger.Logger
}

// NewService constructs an order service instance. The publisher and audit
// emitter may be nil; placement degrades to a durable write with no event.
func NewService(repo Repository, publisher EventPublisher, audit auditEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		audit:     audit,
		logg:      logg,
	}, nil
}

// PlaceOrder records the order as PENDING_PAYMENT and then publishes an
// OrderPlaced event. The write is the commit point: a publish failure is
// logged and swallowed, never surfaced to the caller, so the response
// reflects only whether the row is durable.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	order := &models.Order{
		Status: enums.OrderStatusPendingPayment,
		Items:  input.Items,
		UserID: input.UserID,
	}
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
	}

	ctx = s.logg.WithOrderID(ctx, created.ID)
	s.publishPlaced(ctx, created)

	if s.audit != nil {
		s.audit.Emit(logsink.Entry{
			"service":  "orders",
			"event":    "order_placed",
			"order_id": created.ID,
			"user":     created.UserID,
			"status":   created.Status,
		})
	}

	return &PlacedOrder{ID: created.ID, Status: created.Status}, nil
}

func (s *service) publishPlaced(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	evt := events.NewOrderPlaced(order.ID, order.UserID, order.Items)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
		s.logg.Warn(ctx, "order placed event publish failed; order remains PENDING_PAYMENT")
	}
}

// GetOrder returns the order when the requester owns it or is an admin.
func (s *service) GetOrder(ctx context.Context, id int64, requesterID string, isAdmin bool) (*OrderSummary, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	summary := toSummary(order)
	return &summary, nil
}

// ListMyOrders returns the requester's orders.
func (s *service) ListMyOrders(ctx context.Context, userID string) ([]OrderSummary, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// ListAllOrders returns every order. Callers gate this behind admin checks.
func (s *service) ListAllOrders(ctx context.Context) ([]OrderSummary, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// UpdateStatus sets the order status and returns the updated view. Unknown
// status values are rejected before touching the database.
func (s *service) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*OrderSummary, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := toSummary(order)
	return &summary, nil
}

func toSummary(order *models.Order) OrderSummary {
	return OrderSummary{
		ID:        order.ID,
		Status:    order.Status,
		Items:     order.Items,
		UserID:    order.UserID,
		CreatedAt: order.CreatedAt,
	}
}

func toSummaries(rows []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(rows))
	for i := range rows {
		out = append(out, toSummary(&rows[i]))
	}
	return out
}
