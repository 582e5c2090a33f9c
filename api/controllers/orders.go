package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/lucasfarias/orderflow-backend/api/middleware"
	"github.com/lucasfarias/orderflow-backend/api/responses"
	"github.com/lucasfarias/orderflow-backend/api/validators"
	"github.com/lucasfarias/orderflow-backend/internal/orders"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/types"
)

type placeOrderPayload struct {
	Items types.OrderItems `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder records a new order for the authenticated user and returns
// 201 once the row is durable. Payment settles asynchronously.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		placed, err := svc.PlaceOrder(ctx, orders.PlaceOrderInput{
			UserID: middleware.UserIDFromContext(ctx),
			Items:  payload.Items,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, placed)
	}
}

// GetOrder returns one order for its owner or an admin.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetOrder(ctx, id, middleware.UserIDFromContext(ctx), middleware.IsAdminFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// MyOrders lists the authenticated user's orders.
func MyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := svc.ListMyOrders(ctx, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ListOrders lists every order. Routed behind the admin guard.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := svc.ListAllOrders(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// InternalGetOrder is the privileged read used by the payment authority.
// Routed behind the internal key guard, it skips ownership checks.
func InternalGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetOrder(ctx, id, "", true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// The internal clients decode this shape directly, without the
		// public success envelope.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     order.ID,
			"status": order.Status,
			"items":  order.Items,
		})
	}
}

// UpdateOrderStatus is the privileged unconditional status write used by
// the payment authority and the worker's compensation path.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		updated, err := svc.UpdateStatus(ctx, id, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}
