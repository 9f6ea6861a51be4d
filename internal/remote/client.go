package remote

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
	"golang.org/x/time/rate"
)

// Client is the REST surface of the authoritative storefront backend. The
// exact schema is owned by the backend; this client only consumes the cart
// and order capabilities the engine needs.
type Client interface {
	FetchCart(ctx context.Context) (*CartPayload, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int64) (int64, error)
	DeleteItems(ctx context.Context, ids []string) error
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
}

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL, token string) Client {
	if baseURL == "" {
		logger.L().Warn("backend base URL is empty")
	}

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

// FetchCart loads the full item list (plus the optional server summary hint).
func (c *client) FetchCart(ctx context.Context) (*CartPayload, error) {
	body, err := c.do(ctx, http.MethodGet, "/cart", nil, "FetchCart")
	if err != nil {
		return nil, err
	}

	var payload CartPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed decoding cart payload: %w", err)
	}
	return &payload, nil
}

// UpdateItemQuantity patches a single item and returns the quantity the
// backend acknowledged. The acknowledged value, not the requested one, is
// what callers must keep.
func (c *client) UpdateItemQuantity(ctx context.Context, itemID string, quantity int64) (int64, error) {
	path := "/cart/items/" + itemID
	body, err := c.do(ctx, http.MethodPatch, path, updateQuantityRequest{Quantity: quantity}, "UpdateItemQuantity")
	if err != nil {
		return 0, err
	}

	var res updateQuantityResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("failed decoding quantity response: %w", err)
	}
	return res.Quantity, nil
}

func (c *client) DeleteItems(ctx context.Context, ids []string) error {
	_, err := c.do(ctx, http.MethodDelete, "/cart/items", deleteItemsRequest{IDs: ids}, "DeleteItems")
	return err
}

func (c *client) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/order", req, "SubmitOrder")
	if err != nil {
		return "", err
	}

	var res OrderResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("failed decoding order response: %w", err)
	}
	if res.OrderID == "" {
		return "", &ServerRejection{Op: "SubmitOrder", Status: http.StatusOK, Body: "order endpoint returned no orderId"}
	}
	return res.OrderID, nil
}

func (c *client) do(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			log.Error("Failed to marshal request body", zap.Error(err))
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Backend request failed", zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("Backend returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &ServerRejection{Op: op, Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	return bodyBytes, nil
}
