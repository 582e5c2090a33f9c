package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasfarias/orderflow-backend/api/controllers"
	"github.com/lucasfarias/orderflow-backend/api/middleware"
	"github.com/lucasfarias/orderflow-backend/internal/orders"
	"github.com/lucasfarias/orderflow-backend/internal/payments"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/metrics"
)

// NewOrderRouter assembles the order service HTTP surface: public order
// placement and reads, plus the privileged internal endpoints used by the
// payment authority and the reconciliation worker.
func NewOrderRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	registry *prometheus.Registry,
	ordersSvc orders.Service,
	readiness map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	mountOperational(r, cfg, registry, readiness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/orders", controllers.PlaceOrder(ordersSvc, logg))
		r.Get("/orders/{id}", controllers.GetOrder(ordersSvc, logg))
		r.Get("/myorders", controllers.MyOrders(ordersSvc, logg))
		r.With(middleware.RequireAdmin(logg)).Get("/orders", controllers.ListOrders(ordersSvc, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.InternalKey(cfg.Internal, logg))
		r.Get("/internal/orders/{id}", controllers.InternalGetOrder(ordersSvc, logg))
		r.Patch("/orders/{id}", controllers.UpdateOrderStatus(ordersSvc, logg))
	})

	return r
}

// NewPaymentRouter assembles the payment authority HTTP surface.
func NewPaymentRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	registry *prometheus.Registry,
	paymentsSvc payments.Service,
	readiness map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	mountOperational(r, cfg, registry, readiness)

	handler := controllers.ProcessPayment(paymentsSvc, logg)
	r.Post("/payment", handler)
	r.Post("/payments", handler)

	return r
}

func mountOperational(r chi.Router, cfg *config.Config, registry *prometheus.Registry, readiness map[string]controllers.Pinger) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness))
	})
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
}
