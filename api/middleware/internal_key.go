package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/lucasfarias/orderflow-backend/api/responses"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	pkgerrors "github.com/lucasfarias/orderflow-backend/pkg/errors"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
)

const internalKeyHeader = "X-Internal-Key"

// InternalKey guards the privileged service-to-service endpoints with a
// shared secret header. An empty configured key locks the endpoints rather
// than opening them.
func InternalKey(cfg config.InternalConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(internalKeyHeader)
			if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.APIKey)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid internal key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
