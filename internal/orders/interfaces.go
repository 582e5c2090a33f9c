package orders

import (
	"context"

	"github.com/lucasfarias/orderflow-backend/pkg/db/models"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
)

// Repository defines persistence operations on the orders table.
type Repository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error
}
