package middleware

import (
	"context"
	"errors"
	"net/http"

	"cfstats/internal/common"
	"cfstats/internal/common/security"
	"cfstats/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// Authenticator requires a valid token verified earlier by jwtauth.Verifier.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			if err == nil || errors.Is(err, jwtauth.ErrNoTokenFound) {
				authRejections.WithLabelValues("missing_token").Inc()
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			authRejections.WithLabelValues("invalid_token").Inc()
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			authRejections.WithLabelValues("invalid_claims").Inc()
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		userRole, err := security.GetUserRoleFromClaims(claims)
		if err != nil {
			authRejections.WithLabelValues("invalid_claims").Inc()
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			authRejections.WithLabelValues("not_admin").Inc()
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}
