package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"glowcart/internal/logger"

	"go.uber.org/zap"
)

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type confirmFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type gatewayConfirmer struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewGatewayConfirmer builds the HTTP confirmer for the payment gateway's
// POST /payment/confirm endpoint.
func NewGatewayConfirmer(baseURL, secretKey string) Confirmer {
	if secretKey == "" {
		logger.L().Warn("Gateway secret key is empty")
	}

	return &gatewayConfirmer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *gatewayConfirmer) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID),
		zap.Int64("amount", amount),
	)

	jsonBody, err := json.Marshal(confirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/payment/confirm", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating confirmation request", zap.Error(err))
		return err
	}

	req.SetBasicAuth(g.secretKey, "")
	req.Header.Add("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("Gateway request failed", zap.Error(err))
		return fmt.Errorf("confirmation request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read gateway response", zap.Error(err))
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure confirmFailure
		if jsonErr := json.Unmarshal(bodyBytes, &failure); jsonErr != nil || failure.Code == "" {
			log.Error("Gateway returned undecodable failure",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("response", bodyBytes),
			)
			return &GatewayError{Code: "UNKNOWN", Message: string(bodyBytes)}
		}
		return FromFailureParams(failure.Code, failure.Message)
	}

	return nil
}
