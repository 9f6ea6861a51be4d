package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"glowcart/internal/api"
	"glowcart/internal/config"
	"glowcart/internal/db"
	"glowcart/internal/logger"
	"glowcart/internal/metrics"
	"glowcart/internal/middleware"
	"glowcart/internal/payment"
	"glowcart/internal/remote"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	backend := remote.NewClient(cfg.BackendBaseURL, cfg.BackendToken)
	confirmer := payment.NewGatewayConfirmer(cfg.GatewayBaseURL, cfg.GatewaySecretKey)
	guard := payment.NewGuard(confirmer, payment.NewLedger(database))

	registry := api.NewRegistry(backend)
	handler := api.NewHandler(registry, guard)

	apiMux := http.NewServeMux()
	handler.Register(apiMux)

	root := http.NewServeMux()
	root.Handle("/api/", middleware.AuthMiddleware([]byte(cfg.JWTSecret),
		middleware.RateLimitMiddleware(apiMux)))
	root.Handle("GET /metrics", metrics.Handler())
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: middleware.LoggingMiddleware(root),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L().Info("🚀 Checkout engine listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("Shutting down")

	// In-flight payment confirmations are detached from request contexts and
	// run to completion; the shutdown window only covers request handling.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("Shutdown did not complete cleanly", zap.Error(err))
	}
}
