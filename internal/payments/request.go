package payments

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
)

// PaymentRequest is the normalized form of a payment call. Callers send the
// order id under any of order_id, orderId, or id, encoded as JSON, a form
// body, or query parameters.
type PaymentRequest struct {
	OrderID int64
	Method  string
}

var orderIDKeys = []string{"order_id", "orderId", "id"}

var methodKeys = []string{"method", "payment_method"}

// ParseRequest normalizes a payment call. The body is tried as JSON first,
// then as a form, then the query string; the first shape yielding an order
// id wins. A request with no usable id is a validation error.
func ParseRequest(r *http.Request) (*PaymentRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read payment request body")
	}

	if req, ok := parseJSONBody(body); ok {
		return req, nil
	}
	if req, ok := parseFormBody(body); ok {
		return req, nil
	}
	if req, ok := fromValues(r.URL.Query()); ok {
		return req, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid order identifier")
}

func parseJSONBody(body []byte) (*PaymentRequest, bool) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, false
	}
	req := &PaymentRequest{}
	found := false
	for _, key := range orderIDKeys {
		if raw, ok := fields[key]; ok {
			if id, ok := coerceOrderID(raw); ok {
				req.OrderID = id
				found = true
				break
			}
		}
	}
	if !found {
		return nil, false
	}
	for _, key := range methodKeys {
		if raw, ok := fields[key].(string); ok && raw != "" {
			req.Method = raw
			break
		}
	}
	return req, true
}

func parseFormBody(body []byte) (*PaymentRequest, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, false
	}
	return fromValues(values)
}

func fromValues(values url.Values) (*PaymentRequest, bool) {
	req := &PaymentRequest{}
	found := false
	for _, key := range orderIDKeys {
		if raw := values.Get(key); raw != "" {
			if id, ok := coerceOrderID(raw); ok {
				req.OrderID = id
				found = true
				break
			}
		}
	}
	if !found {
		return nil, false
	}
	for _, key := range methodKeys {
		if raw := values.Get(key); raw != "" {
			req.Method = raw
			break
		}
	}
	return req, true
}

// coerceOrderID accepts JSON numbers and digit strings. Fractional numbers
// are rejected rather than truncated.
func coerceOrderID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		id := int64(v)
		if float64(id) != v || id <= 0 {
			return 0, false
		}
		return id, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id <= 0 {
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
