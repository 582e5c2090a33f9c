package orders

import (
	"context"
	"errors"

	"github.com/lucasfarias/orderflow-backend/pkg/db/models"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
	"gorm.io/gorm"
)

// GormRepository persists orders through GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create inserts the order and returns it with its generated ID.
func (r *GormRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads a single order.
func (r *GormRepository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser returns all orders placed by the given user, newest first.
func (r *GormRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every order, newest first.
func (r *GormRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus sets the order status unconditionally.
func (r *GormRepository) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
