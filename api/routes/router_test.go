package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasfarias/orderflow-backend/internal/orders"
	pkgauth "github.com/lucasfarias/orderflow-backend/pkg/auth"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/metrics"
	"github.com/lucasfarias/orderflow-backend/pkg/types"
)

type fakeOrdersService struct {
	placed     []orders.PlaceOrderInput
	lastStatus enums.OrderStatus
}

func (f *fakeOrdersService) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.PlacedOrder, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	f.placed = append(f.placed, input)
	return &orders.PlacedOrder{ID: 1, Status: enums.OrderStatusPendingPayment}, nil
}

func (f *fakeOrdersService) GetOrder(_ context.Context, id int64, requesterID string, isAdmin bool) (*orders.OrderSummary, error) {
	if id != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !isAdmin && requesterID != "alice" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return &orders.OrderSummary{ID: 1, Status: enums.OrderStatusPendingPayment, UserID: "alice"}, nil
}

func (f *fakeOrdersService) ListMyOrders(context.Context, string) ([]orders.OrderSummary, error) {
	return []orders.OrderSummary{}, nil
}

func (f *fakeOrdersService) ListAllOrders(context.Context) ([]orders.OrderSummary, error) {
	return []orders.OrderSummary{{ID: 1}}, nil
}

func (f *fakeOrdersService) UpdateStatus(_ context.Context, id int64, status enums.OrderStatus) (*orders.OrderSummary, error) {
	f.lastStatus = status
	return &orders.OrderSummary{ID: id, Status: status}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Env: "development"},
		JWT:      config.JWTConfig{Secret: "test_secret", ExpirationMinutes: 60},
		Internal: config.InternalConfig{APIKey: "internal_secret"},
	}
}

func newOrderTestServer(t *testing.T) (*httptest.Server, *fakeOrdersService) {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	registry := prometheus.NewRegistry()
	svc := &fakeOrdersService{}
	handler := NewOrderRouter(cfg, logg, metrics.NewHTTPMetrics(registry, "router-test"), registry, svc, nil)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, svc
}

func bearerFor(t *testing.T, userID string, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestOrderRouterPlaceOrder(t *testing.T) {
	server, svc := newOrderTestServer(t)

	req, _ := http.NewRequest("POST", server.URL+"/orders", strings.NewReader(`{"items":[{"product_id":1,"quantity":2}]}`))
	req.Header.Set("Authorization", bearerFor(t, "alice", enums.UserRoleUser))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, svc.placed, 1)
	assert.Equal(t, "alice", svc.placed[0].UserID)
}

func TestOrderRouterPlaceOrderRequiresAuth(t *testing.T) {
	server, _ := newOrderTestServer(t)

	resp, err := http.Post(server.URL+"/orders", "application/json", strings.NewReader(`{"items":[{"product_id":1,"quantity":2}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderRouterEmptyItemsRejected(t *testing.T) {
	server, _ := newOrderTestServer(t)

	req, _ := http.NewRequest("POST", server.URL+"/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Authorization", bearerFor(t, "alice", enums.UserRoleUser))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOrderRouterAdminListing(t *testing.T) {
	server, _ := newOrderTestServer(t)

	t.Run("userForbidden", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/orders", nil)
		req.Header.Set("Authorization", bearerFor(t, "alice", enums.UserRoleUser))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("adminAllowed", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/orders", nil)
		req.Header.Set("Authorization", bearerFor(t, "root", enums.UserRoleAdmin))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestOrderRouterInternalEndpoints(t *testing.T) {
	server, svc := newOrderTestServer(t)

	t.Run("readRequiresKey", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/internal/orders/1")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("readWithKeyReturnsBareShape", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/internal/orders/1", nil)
		req.Header.Set("X-Internal-Key", "internal_secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var view map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, float64(1), view["id"])
		assert.Equal(t, "PENDING_PAYMENT", view["status"])
	})

	t.Run("patchStatus", func(t *testing.T) {
		req, _ := http.NewRequest("PATCH", server.URL+"/orders/1?status=PAYMENT_FAILED", nil)
		req.Header.Set("X-Internal-Key", "internal_secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, enums.OrderStatusPaymentFailed, svc.lastStatus)
	})

	t.Run("patchUnknownStatusRejected", func(t *testing.T) {
		req, _ := http.NewRequest("PATCH", server.URL+"/orders/1?status=SHIPPED", nil)
		req.Header.Set("X-Internal-Key", "internal_secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestOrderRouterOwnerRead(t *testing.T) {
	server, _ := newOrderTestServer(t)

	t.Run("owner", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/orders/1", nil)
		req.Header.Set("Authorization", bearerFor(t, "alice", enums.UserRoleUser))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var envelope types.SuccessEnvelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	})

	t.Run("foreignUser", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/orders/1", nil)
		req.Header.Set("Authorization", bearerFor(t, "bob", enums.UserRoleUser))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknownOrder", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/orders/999", nil)
		req.Header.Set("Authorization", bearerFor(t, "alice", enums.UserRoleUser))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestOrderRouterOperationalEndpoints(t *testing.T) {
	server, _ := newOrderTestServer(t)

	resp, err := http.Get(server.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
