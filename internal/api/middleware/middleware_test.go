package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cfstats/internal/common/security"
	"cfstats/internal/domain/model"
	"cfstats/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRateLimiterPerIP(t *testing.T) {
	l := NewRateLimiter(0.001, 2)
	h := l.Handler(http.HandlerFunc(ok))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))

	l.evict(0)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1003"))
}

func adminRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.With(Authenticator, AdminOnly).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetUserIDFromContext(r.Context())
		w.Write([]byte(id))
	})
	return r
}

func TestAuthenticatorAndAdminOnly(t *testing.T) {
	security.InitJWT([]byte("test-secret"), time.Hour)
	h := adminRouter()

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("garbage").Code)

	userToken, err := security.GenerateToken("u1", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(userToken).Code)

	adminToken, err := security.GenerateToken("a1", model.RoleAdmin)
	require.NoError(t, err)
	rec := call(adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", rec.Body.String())
}

func TestMonitorUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Monitor)
	r.Get("/profiles/{handle}", ok)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/profiles/{handle}", http.MethodGet, "200"))
	for _, h := range []string{"a_user", "b_user"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/profiles/"+h, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/profiles/{handle}", http.MethodGet, "200"))
	assert.Equal(t, 2.0, after-before)
}

func TestRequestLoggerInjectsLogger(t *testing.T) {
	var got *zap.Logger
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	assert.NotSame(t, zap.L(), got)
}
