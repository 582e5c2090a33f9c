package models

import (
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/types"
)

// Order is the durable record owned by the order service. All other
// components mutate it only through the privileged status-write endpoint.
type Order struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING_PAYMENT'"`
	Items     types.OrderItems  `gorm:"column:items;type:jsonb;serializer:json"`
	UserID    string            `gorm:"column:user_id"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string {
	return "orders"
}
