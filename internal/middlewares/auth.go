package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Bessima/bookbind-pay/internal/handlers"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"go.uber.org/zap"
)

// AuthMiddleware accepts the access token as a bearer credential or, for
// browsers, as the access_token cookie.
func AuthMiddleware(authHandler *handlers.AuthHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			} else if cookie, err := r.Cookie(handlers.AccessTokenCookie); err == nil {
				tokenString = cookie.Value
			}

			if tokenString == "" {
				handlers.WriteDetail(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			claims, err := authHandler.ValidateToken(tokenString)
			if err != nil {
				logger.Log.Debug("rejected token", zap.Error(err))
				handlers.WriteDetail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			user, err := authHandler.UserStorage.GetUserByID(r.Context(), claims.UserID)
			if err != nil || user == nil {
				handlers.WriteDetail(w, http.StatusUnauthorized, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
