package orders

import (
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/types"
)

// PlaceOrderInput captures the data required to record a new order.
type PlaceOrderInput struct {
	UserID string
	Items  types.OrderItems
}

// OrderSummary is the representation returned by reads and lists.
type OrderSummary struct {
	ID        int64             `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	Items     types.OrderItems  `json:"items"`
	UserID    string            `json:"user_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PlacedOrder is the synchronous response to a successful placement. The
// caller sees success once the row is durable, not once payment has started.
type PlacedOrder struct {
	ID     int64             `json:"id"`
	Status enums.OrderStatus `json:"status"`
}
