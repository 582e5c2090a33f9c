package enums

// EventType names the domain events that cross the broker.
type EventType string

const (
	EventOrderPlaced EventType = "OrderPlaced"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}
