package middleware

import (
	"net/http"

	"glowcart/internal/auth"
	"glowcart/internal/logger"
)

// AuthMiddleware verifies the bearer token and puts the user id into the
// request context. Every engine endpoint requires an authenticated
// identity.
func AuthMiddleware(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.ExtractAccessToken(r)

		userID, err := auth.VerifyToken(tokenStr, secret)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := logger.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
