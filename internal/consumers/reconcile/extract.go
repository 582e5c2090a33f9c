package reconcile

import "encoding/json"

// extraction is one way of locating an order id in a decoded event body.
// Strategies are tried in a fixed order; the first hit wins. Publishers have
// shipped several envelope shapes over time so the worker accepts them all.
type extraction func(map[string]any) (int64, bool)

var extractions = []extraction{
	fromNestedOrderID,    // {"order":{"id":7}}
	fromNumericOrder,     // {"order":7}
	fromTopLevelOrderID,  // {"order_id":7}
	fromDoublyNestedID,   // {"order":{"order":{"id":7}}}
}

// extractOrderID runs the strategies in order.
func extractOrderID(body map[string]any) (int64, bool) {
	for _, extract := range extractions {
		if id, ok := extract(body); ok {
			return id, true
		}
	}
	return 0, false
}

func fromNestedOrderID(body map[string]any) (int64, bool) {
	order, ok := body["order"].(map[string]any)
	if !ok {
		return 0, false
	}
	return coerceID(order["id"])
}

func fromNumericOrder(body map[string]any) (int64, bool) {
	return coerceID(body["order"])
}

func fromTopLevelOrderID(body map[string]any) (int64, bool) {
	return coerceID(body["order_id"])
}

func fromDoublyNestedID(body map[string]any) (int64, bool) {
	outer, ok := body["order"].(map[string]any)
	if !ok {
		return 0, false
	}
	inner, ok := outer["order"].(map[string]any)
	if !ok {
		return 0, false
	}
	return coerceID(inner["id"])
}

// coerceID accepts the numeric shapes a JSON decode can produce. Fractional
// values and non-positive ids are not order ids.
func coerceID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		id := int64(v)
		if float64(id) != v || id <= 0 {
			return 0, false
		}
		return id, true
	case json.Number:
		id, err := v.Int64()
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
