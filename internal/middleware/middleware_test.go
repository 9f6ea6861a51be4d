package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"glowcart/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("valid token passes user id through context", func(t *testing.T) {
		var gotUserID string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID = logger.UserIDFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-7"))
		rec := httptest.NewRecorder()

		AuthMiddleware(testSecret, next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-7", gotUserID)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest("GET", "/api/cart", nil)
		rec := httptest.NewRecorder()

		AuthMiddleware(testSecret, next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-7")+"x")
		rec := httptest.NewRecorder()

		AuthMiddleware(testSecret, next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	serve := func(userID, target string) int {
		req := httptest.NewRequest("POST", target, nil)
		req = req.WithContext(logger.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("strict tier throttles checkout bursts", func(t *testing.T) {
		codes := make(map[int]int)
		for i := 0; i < burstStrict+3; i++ {
			codes[serve("burst-user", "/api/checkout")]++
		}

		assert.Equal(t, burstStrict, codes[http.StatusOK])
		assert.Equal(t, 3, codes[http.StatusTooManyRequests])
	})

	t.Run("tiers have independent quotas", func(t *testing.T) {
		for i := 0; i < burstStrict; i++ {
			serve("tiered-user", "/api/payment/return")
		}
		require.Equal(t, http.StatusTooManyRequests, serve("tiered-user", "/api/payment/return"))

		// Exhausting the strict tier leaves cart traffic untouched.
		assert.Equal(t, http.StatusOK, serve("tiered-user", "/api/cart"))
	})

	t.Run("users do not share quotas", func(t *testing.T) {
		for i := 0; i < burstStrict; i++ {
			require.Equal(t, http.StatusOK, serve(fmt.Sprintf("solo-%d", i), "/api/checkout"))
		}
	})
}

func TestLoggingMiddlewarePropagatesRequestID(t *testing.T) {
	var gotRequestID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = logger.RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("honors inbound header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()

		LoggingMiddleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "req-123", gotRequestID)
	})

	t.Run("generates one when absent", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cart", nil)
		rec := httptest.NewRecorder()

		LoggingMiddleware(next).ServeHTTP(rec, req)

		assert.NotEmpty(t, gotRequestID)
	})
}
