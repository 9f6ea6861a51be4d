package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"glowcart/internal/cart"
	"glowcart/internal/checkout"
	"glowcart/internal/logger"
	"glowcart/internal/payment"
	"glowcart/internal/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient is a mock implementation of the remote.Client interface.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) FetchCart(ctx context.Context) (*remote.CartPayload, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.CartPayload), args.Error(1)
}

func (m *MockClient) UpdateItemQuantity(ctx context.Context, itemID string, quantity int64) (int64, error) {
	args := m.Called(ctx, itemID, quantity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClient) DeleteItems(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockClient) SubmitOrder(ctx context.Context, req remote.OrderRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// countingConfirmer counts confirmation calls and records the last one.
type countingConfirmer struct {
	calls          atomic.Int64
	lastPaymentKey string
	lastOrderID    string
	lastAmount     int64
	mu             sync.Mutex
	result         error
}

func (c *countingConfirmer) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error {
	c.calls.Add(1)
	c.mu.Lock()
	c.lastPaymentKey = paymentKey
	c.lastOrderID = orderID
	c.lastAmount = amount
	c.mu.Unlock()
	return c.result
}

type testEnv struct {
	mux       *http.ServeMux
	client    *MockClient
	confirmer *countingConfirmer
	handler   *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	client := new(MockClient)
	confirmer := &countingConfirmer{}

	registry := NewRegistry(client)
	handler := NewHandler(registry, payment.NewGuard(confirmer, nil))

	mux := http.NewServeMux()
	handler.Register(mux)

	return &testEnv{mux: mux, client: client, confirmer: confirmer, handler: handler}
}

func (env *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, reqBody)
	req = req.WithContext(logger.WithUserID(req.Context(), "user-1"))

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func cartFixture() *remote.CartPayload {
	return &remote.CartPayload{
		Items: []remote.CartItem{
			{ID: "ci-1", ProductID: "p-1", Name: "Rose Toner", UnitPrice: 12000, Quantity: 1},
			{ID: "ci-2", ProductID: "p-2", Name: "Calming Serum", UnitPrice: 6500, Quantity: 2},
		},
	}
}

func TestHandler_LoadAndGetCart(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)

	rec := env.do(t, "POST", "/api/cart/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Snapshot.Items, 2)
	assert.True(t, resp.AllSelected)
	assert.Equal(t, int64(28000), resp.Pricing.FinalAmount)

	rec = env.do(t, "GET", "/api/cart", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_UpdateQuantity(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)
	env.client.On("UpdateItemQuantity", mock.Anything, "ci-1", int64(3)).Return(int64(3), nil)

	env.do(t, "POST", "/api/cart/load", nil)

	rec := env.do(t, "PATCH", "/api/cart/items/ci-1", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Snapshot.Items[0].Quantity)
	// 36000 + 13000, free shipping.
	assert.Equal(t, int64(49000), resp.Pricing.FinalAmount)
}

func TestHandler_UpdateQuantityUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)

	env.do(t, "POST", "/api/cart/load", nil)

	rec := env.do(t, "PATCH", "/api/cart/items/ghost", map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Selection(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)
	env.do(t, "POST", "/api/cart/load", nil)

	rec := env.do(t, "POST", "/api/cart/selection", map[string]any{"itemId": "ci-2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"ci-1"}, resp.SelectedIDs)
	assert.False(t, resp.AllSelected)
	assert.Equal(t, int64(15000), resp.Pricing.FinalAmount)

	rec = env.do(t, "POST", "/api/cart/selection", map[string]any{"selectAll": false})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.SelectedIDs)
	assert.Equal(t, int64(0), resp.Pricing.FinalAmount)

	rec = env.do(t, "POST", "/api/cart/selection", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CheckoutValidationIssuesNoNetworkCall(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)
	env.do(t, "POST", "/api/cart/load", nil)

	rec := env.do(t, "POST", "/api/checkout", map[string]any{
		"receiverName":  "",
		"receiverPhone": "010-1234-5678",
		"roadAddress":   "12 Blossom Ave",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env.client.AssertNotCalled(t, "SubmitOrder")
}

func TestHandler_CheckoutSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)
	env.client.On("SubmitOrder", mock.Anything, mock.Anything).Return("ord_1", nil)

	env.do(t, "POST", "/api/cart/load", nil)

	rec := env.do(t, "POST", "/api/checkout", map[string]any{
		"receiverName":  "Dana",
		"receiverPhone": "010-1234-5678",
		"roadAddress":   "12 Blossom Ave",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp checkoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ord_1", resp.OrderID)
	assert.Equal(t, int64(28000), resp.Amount)
	assert.Equal(t, "AWAITING_GATEWAY_REDIRECT", resp.State)
	assert.NotEmpty(t, resp.GatewayReference)
}

func TestHandler_PaymentReturnConfirmsOnce(t *testing.T) {
	env := newTestEnv(t)

	target := "/api/payment/return?paymentKey=pk_1&orderId=ord_1&amount=28000"

	rec := env.do(t, "GET", target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp paymentReturnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CONFIRMED", resp.Status)

	// Duplicate redirect: same session, same latch, no second call.
	rec = env.do(t, "GET", target, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CONFIRMED", resp.Status)

	assert.Equal(t, int64(1), env.confirmer.calls.Load())
	assert.Equal(t, "pk_1", env.confirmer.lastPaymentKey)
	assert.Equal(t, "ord_1", env.confirmer.lastOrderID)
	assert.Equal(t, int64(28000), env.confirmer.lastAmount)
}

func TestHandler_PaymentReturnMissingAmount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/payment/return?paymentKey=pk_1&orderId=ord_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp paymentReturnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FAILED", resp.Status)
	assert.Contains(t, resp.Reason, "amount")
	assert.Equal(t, int64(0), env.confirmer.calls.Load())
}

func TestHandler_PaymentReturnUserCancelSuppressed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/payment/return?code=PAY_PROCESS_CANCELED&message=left&orderId=ord_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp paymentReturnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Empty(t, resp.Reason)
	assert.Equal(t, int64(0), env.confirmer.calls.Load())
}

func TestHandler_PaymentReturnGatewayFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/payment/return?code=INVALID_CARD&message=bad+card&orderId=ord_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp paymentReturnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FAILED", resp.Status)
	assert.Contains(t, resp.Reason, "INVALID_CARD")
	assert.Equal(t, int64(0), env.confirmer.calls.Load())
}

func TestHandler_EvictsStaleSessionsAndDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.client.On("FetchCart", mock.Anything).Return(cartFixture(), nil)
	env.client.On("SubmitOrder", mock.Anything, mock.Anything).Return("ord_old", nil)

	env.do(t, "POST", "/api/cart/load", nil)
	env.do(t, "POST", "/api/checkout", map[string]any{
		"receiverName":  "Dana",
		"receiverPhone": "010-1234-5678",
		"roadAddress":   "12 Blossom Ave",
	})
	env.do(t, "GET", "/api/payment/return?paymentKey=pk_old&orderId=ord_old&amount=28000", nil)
	env.do(t, "GET", "/api/payment/return?paymentKey=pk_new&orderId=ord_new&amount=5000", nil)

	// Age the first pair past the TTL; the second stays fresh.
	env.handler.mu.Lock()
	env.handler.sessions["ord_old"].CreatedAt = time.Now().Add(-time.Hour)
	env.handler.drafts["ord_old"].CreatedAt = time.Now().Add(-time.Hour)
	env.handler.mu.Unlock()

	env.handler.evictStale()

	env.handler.mu.Lock()
	defer env.handler.mu.Unlock()
	assert.NotContains(t, env.handler.sessions, "ord_old")
	assert.NotContains(t, env.handler.drafts, "ord_old")
	assert.Contains(t, env.handler.sessions, "ord_new")
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation failure", checkout.ErrMissingReceiverName, http.StatusUnprocessableEntity},
		{"unknown item", cart.ErrItemNotFound, http.StatusNotFound},
		{"invalid quantity", cart.ErrInvalidQuantity, http.StatusBadRequest},
		{"draft not validated", checkout.ErrNotValidated, http.StatusConflict},
		{"draft already submitted", checkout.ErrAlreadySubmitted, http.StatusConflict},
		{"superseded load", cart.ErrLoadSuperseded, http.StatusConflict},
		{"backend rejection", &remote.ServerRejection{Op: "FetchCart", Status: 500}, http.StatusBadGateway},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/cart", nil)
			rec := httptest.NewRecorder()

			writeError(rec, req, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRegistry_EnginePerUser(t *testing.T) {
	client := new(MockClient)
	registry := NewRegistry(client)

	a := registry.engineFor("user-a")
	b := registry.engineFor("user-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, registry.engineFor("user-a"))
}
