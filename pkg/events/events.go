// Package events holds the wire types shared by the placement publisher and
// the reconciliation worker.
package events

import (
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/types"
)

// OrderRef is the order snapshot embedded in an OrderPlaced envelope.
type OrderRef struct {
	ID    int64            `json:"id"`
	User  string           `json:"user"`
	Items types.OrderItems `json:"items"`
}

// OrderPlaced is the envelope published when an order is recorded. It is
// immutable once published; its lifetime is bound to the broker's retention
// and ack policy, not to the order row.
type OrderPlaced struct {
	Event enums.EventType `json:"event"`
	Order OrderRef        `json:"order"`
	Time  time.Time       `json:"time"`
}

// NewOrderPlaced stamps the envelope with the emission time.
func NewOrderPlaced(orderID int64, user string, items types.OrderItems) OrderPlaced {
	return OrderPlaced{
		Event: enums.EventOrderPlaced,
		Order: OrderRef{ID: orderID, User: user, Items: items},
		Time:  time.Now().UTC(),
	}
}
