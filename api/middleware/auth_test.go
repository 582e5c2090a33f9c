package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/lucasfarias/orderflow-backend/pkg/auth"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "test_secret", ExpirationMinutes: 60}
}

func mintToken(t *testing.T, userID string, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWT(), time.Now(), userID, role)
	require.NoError(t, err)
	return token
}

func authEcho(t *testing.T) (http.Handler, *string, *bool) {
	t.Helper()
	var gotUser string
	var gotAdmin bool
	handler := Auth(testJWT(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotAdmin = IsAdminFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return handler, &gotUser, &gotAdmin
}

func TestAuthSeedsContext(t *testing.T) {
	handler, gotUser, gotAdmin := authEcho(t)

	r := httptest.NewRequest("GET", "/myorders", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, "alice", enums.UserRoleUser))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "alice", *gotUser)
	assert.False(t, *gotAdmin)
}

func TestAuthAdminRole(t *testing.T) {
	handler, _, gotAdmin := authEcho(t)

	r := httptest.NewRequest("GET", "/orders", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, "root", enums.UserRoleAdmin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, *gotAdmin)
}

func TestAuthAcceptsForeignSecretToken(t *testing.T) {
	handler, gotUser, _ := authEcho(t)

	token, err := pkgauth.MintAccessToken(
		config.JWTConfig{Secret: "other_env_secret", ExpirationMinutes: 60},
		time.Now(), "carol", enums.UserRoleUser,
	)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/myorders", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "carol", *gotUser)
}

func TestAuthRejectsMissingOrBadToken(t *testing.T) {
	handler, _, _ := authEcho(t)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "emptyBearer", header: "Bearer "},
		{name: "garbage", header: "Bearer not.a.jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/myorders", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(nil)(next)

	t.Run("userForbidden", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/orders", nil)
		r = r.WithContext(WithRole(r.Context(), enums.UserRoleUser))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("adminAllowed", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/orders", nil)
		r = r.WithContext(WithRole(r.Context(), enums.UserRoleAdmin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
