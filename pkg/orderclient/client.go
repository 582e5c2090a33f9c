// Package orderclient is the privileged HTTP client for the order store,
// used by the payment authority's read/write step and by the worker's
// compensating write.
package orderclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
)

const internalKeyHeader = "X-Internal-Key"

// OrderView is the subset of an order the privileged read exposes.
type OrderView struct {
	ID     int64             `json:"id"`
	Status enums.OrderStatus `json:"status"`
	Items  json.RawMessage   `json:"items"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a client against the order service base URL.
func New(services config.ServicesConfig, internal config.InternalConfig) *Client {
	timeout := services.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: services.OrderServiceURL,
		apiKey:  internal.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Get fetches the current order state through the internal read endpoint.
func (c *Client) Get(ctx context.Context, orderID int64) (*OrderView, error) {
	endpoint := fmt.Sprintf("%s/internal/orders/%d", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order read request")
	}
	c.setInternalKey(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order read failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %d not found", orderID))
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("order read returned status %d", resp.StatusCode))
	}

	var view OrderView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order read response")
	}
	return &view, nil
}

// UpdateStatus issues the unconditional privileged status write.
func (c *Client) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	endpoint := fmt.Sprintf("%s/orders/%d?%s", c.baseURL, orderID, url.Values{"status": {status.String()}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order status request")
	}
	c.setInternalKey(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order status write failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("order status write returned status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) setInternalKey(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(internalKeyHeader, c.apiKey)
	}
}
