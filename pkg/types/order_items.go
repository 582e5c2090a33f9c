package types

// OrderItem is one line of the item snapshot captured when an order is
// placed. The saga treats the snapshot as opaque; only the placing service
// interprets it.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderItems []OrderItem
