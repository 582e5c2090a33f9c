package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/lucasfarias/orderflow-backend/internal/payments"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
)

// ProcessPayment drives one synchronous payment attempt. The response shape
// is fixed by the worker's success check: 200 with result SUCCESS settles
// the saga, 202 with result PENDING tells callers to retry asynchronously,
// 422 marks an unusable request.
func ProcessPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := payments.ParseRequest(r)
		if err != nil {
			writePaymentResult(w, http.StatusUnprocessableEntity, enums.PaymentResultFailed, err.Error())
			return
		}

		result := svc.ProcessPayment(ctx, req.OrderID)
		if result == enums.PaymentResultSuccess {
			writePaymentResult(w, http.StatusOK, enums.PaymentResultSuccess, "")
			return
		}
		writePaymentResult(w, http.StatusAccepted, enums.PaymentResultPending, "")
	}
}

func writePaymentResult(w http.ResponseWriter, status int, result enums.PaymentResult, errMsg string) {
	payload := map[string]any{"result": result}
	if errMsg != "" {
		payload["error"] = errMsg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
