package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no access token provided")
	ErrInvalidToken = errors.New("invalid access token")
)

// ExtractAccessToken pulls the bearer token from the cookie (preferred) or
// the Authorization header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// VerifyToken validates the signed token and returns the user id claim. The
// engine consumes an authenticated identity; it never issues tokens.
func VerifyToken(tokenStr string, secret []byte) (string, error) {
	if tokenStr == "" {
		return "", ErrNoToken
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	// Numeric ids arrive as float64 from JSON claims.
	if uid, ok := claims["user_id"].(float64); ok {
		return strconv.FormatInt(int64(uid), 10), nil
	}

	return "", ErrInvalidToken
}
