package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv sets the environment variable for the duration of the test
		// and automatically restores it afterwards.
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "test")
		t.Setenv("BACKEND_BASE_URL", "http://backend.local")
		t.Setenv("BACKEND_SERVICE_TOKEN", "backend_token")
		t.Setenv("GATEWAY_BASE_URL", "http://gateway.local")
		t.Setenv("GATEWAY_SECRET_KEY", "gateway_secret")
		t.Setenv("SECRET_KEY", "jwt_secret")
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "http://backend.local", cfg.BackendBaseURL)
		assert.Equal(t, "backend_token", cfg.BackendToken)
		assert.Equal(t, "http://gateway.local", cfg.GatewayBaseURL)
		assert.Equal(t, "gateway_secret", cfg.GatewaySecretKey)
		assert.Equal(t, "jwt_secret", cfg.JWTSecret)
		assert.Equal(t, "localhost", cfg.DBHost)
	})

	t.Run("Defaults port when unset", func(t *testing.T) {
		t.Setenv("APP_PORT", "")
		t.Setenv("BACKEND_BASE_URL", "http://backend.local")
		t.Setenv("GATEWAY_BASE_URL", "http://gateway.local")

		cfg := LoadConfig()
		assert.Equal(t, "8080", cfg.AppPort)
	})
}
