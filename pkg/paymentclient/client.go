// Package paymentclient calls the payment authority on behalf of the
// reconciliation worker. An attempt counts as settled only when the
// authority answers 200 with result SUCCESS; everything else, including
// transport errors and malformed bodies, is a retryable failure.
package paymentclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client against the payment authority base URL.
func New(services config.ServicesConfig) *Client {
	timeout := services.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: services.PaymentServiceURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type paymentResponse struct {
	Result enums.PaymentResult `json:"result"`
}

// Charge asks the authority to settle the order. A nil error means the
// order is PAID.
func (c *Client) Charge(ctx context.Context, orderID int64) error {
	body := strings.NewReader(fmt.Sprintf(`{"order_id":%d}`, orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment", body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment call returned status %d", resp.StatusCode))
	}

	var decoded paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment response")
	}
	if decoded.Result != enums.PaymentResultSuccess {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment result %q", decoded.Result))
	}
	return nil
}
