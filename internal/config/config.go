package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppEnv  string

	// Authoritative storefront backend (cart + order endpoints).
	BackendBaseURL string
	BackendToken   string

	// Payment gateway (confirmation endpoint).
	GatewayBaseURL   string
	GatewaySecretKey string

	JWTSecret string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:          os.Getenv("APP_PORT"),
		AppEnv:           os.Getenv("APP_ENV"),
		BackendBaseURL:   os.Getenv("BACKEND_BASE_URL"),
		BackendToken:     os.Getenv("BACKEND_SERVICE_TOKEN"),
		GatewayBaseURL:   os.Getenv("GATEWAY_BASE_URL"),
		GatewaySecretKey: os.Getenv("GATEWAY_SECRET_KEY"),
		JWTSecret:        os.Getenv("SECRET_KEY"),
		DBHost:           os.Getenv("DB_HOST"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		DBPort:           os.Getenv("DB_PORT"),
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	if cfg.BackendBaseURL == "" || cfg.GatewayBaseURL == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}
