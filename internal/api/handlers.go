package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"glowcart/internal/cart"
	"glowcart/internal/checkout"
	"glowcart/internal/logger"
	"glowcart/internal/payment"
	"glowcart/internal/pricing"
	"glowcart/internal/remote"

	"go.uber.org/zap"
)

// Handler is the HTTP surface of the engine. It resolves the per-user
// engine from the authenticated identity and keeps one payment session per
// order, so duplicate return-trip requests land on the same confirmation
// latch.
type Handler struct {
	registry *Registry
	guard    *payment.Guard

	mu         sync.Mutex
	sessions   map[string]*payment.Session
	drafts     map[string]*checkout.Draft
	sessionTTL time.Duration
}

func NewHandler(registry *Registry, guard *payment.Guard) *Handler {
	h := &Handler{
		registry:   registry,
		guard:      guard,
		sessions:   make(map[string]*payment.Session),
		drafts:     make(map[string]*checkout.Draft),
		sessionTTL: 30 * time.Minute,
	}
	go h.cleanupLoop()
	return h
}

// cleanupLoop evicts terminal sessions and stale drafts past the TTL. A
// terminal session is kept for a while so duplicate gateway redirects stay
// idempotent; anything older is covered by the confirmation ledger.
func (h *Handler) cleanupLoop() {
	for {
		time.Sleep(5 * time.Minute)
		h.evictStale()
	}
}

func (h *Handler) evictStale() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for orderID, s := range h.sessions {
		if s.State() != payment.StatePending && time.Since(s.CreatedAt) > h.sessionTTL {
			delete(h.sessions, orderID)
		}
	}
	for orderID, d := range h.drafts {
		if time.Since(d.CreatedAt) > h.sessionTTL {
			delete(h.drafts, orderID)
		}
	}
}

// Register wires the engine routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/load", h.LoadCart)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.UpdateQuantity)
	mux.HandleFunc("DELETE /api/cart/items", h.DeleteItems)
	mux.HandleFunc("POST /api/cart/selection", h.UpdateSelection)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/payment/return", h.PaymentReturn)
}

type cartResponse struct {
	Snapshot    cart.Snapshot   `json:"snapshot"`
	SelectedIDs []string        `json:"selectedIds"`
	AllSelected bool            `json:"allSelected"`
	Pricing     pricing.Summary `json:"pricing"`
}

func (h *Handler) engine(r *http.Request) *engine {
	return h.registry.engineFor(logger.UserIDFrom(r.Context()))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)
	h.writeCart(w, e)
}

func (h *Handler) LoadCart(w http.ResponseWriter, r *http.Request) {
	e := h.engine(r)

	if err := e.store.Load(r.Context()); err != nil {
		// A superseded load lost to a newer one; the snapshot it would have
		// written is already stale, so just report current state.
		if !errors.Is(err, cart.ErrLoadSuperseded) {
			writeError(w, r, err)
			return
		}
	}
	h.writeCart(w, e)
}

type quantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	e := h.engine(r)
	if err := e.coord.SetQuantity(r.Context(), r.PathValue("id"), req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, e)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) DeleteItems(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	e := h.engine(r)
	if err := e.coord.Delete(r.Context(), req.IDs); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, e)
}

type selectionRequest struct {
	ItemID    string `json:"itemId,omitempty"`
	SelectAll *bool  `json:"selectAll,omitempty"`
}

func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	e := h.engine(r)
	switch {
	case req.SelectAll != nil:
		e.coord.ToggleAll(*req.SelectAll)
	case req.ItemID != "":
		if err := e.coord.Toggle(req.ItemID); err != nil {
			writeError(w, r, err)
			return
		}
	default:
		http.Error(w, "itemId or selectAll required", http.StatusBadRequest)
		return
	}
	h.writeCart(w, e)
}

type checkoutResponse struct {
	OrderID          string `json:"orderId"`
	GatewayReference string `json:"gatewayReference"`
	Amount           int64  `json:"amount"`
	State            string `json:"state"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var shipping checkout.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	e := h.engine(r)

	draft, err := e.checkout.BeginCheckout(shipping)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := e.checkout.Submit(r.Context(), draft); err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	h.drafts[draft.OrderID] = draft
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:          draft.OrderID,
		GatewayReference: draft.GatewayReference,
		Amount:           draft.Pricing.FinalAmount,
		State:            string(draft.State()),
	})
}

type paymentReturnResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// PaymentReturn is the gateway's return boundary. The success path confirms
// exactly once per order; the failure path never issues a network call.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderID := q.Get("orderId")

	if code := q.Get("code"); code != "" {
		h.markReturned(orderID, false)

		failErr := payment.FromFailureParams(code, q.Get("message"))
		if errors.Is(failErr, payment.ErrUserCancelled) {
			// Normal abandonment, suppressed from error reporting.
			logger.FromCtx(r.Context()).Info("Payment cancelled by user", zap.String("order_id", orderID))
			writeJSON(w, http.StatusOK, paymentReturnResponse{OrderID: orderID, Status: "CANCELLED"})
			return
		}

		logger.FromCtx(r.Context()).Error("Payment failed at gateway", zap.String("order_id", orderID), zap.Error(failErr))
		writeJSON(w, http.StatusOK, paymentReturnResponse{OrderID: orderID, Status: "FAILED", Reason: failErr.Error()})
		return
	}

	session := h.sessionFor(orderID, payment.SuccessParams{
		PaymentKey: q.Get("paymentKey"),
		OrderID:    orderID,
		Amount:     q.Get("amount"),
	})

	state, err := h.guard.Confirm(r.Context(), session)
	h.markReturned(orderID, state == payment.StateConfirmed)

	resp := paymentReturnResponse{OrderID: orderID, Status: string(state)}
	if err != nil {
		if errors.Is(err, payment.ErrUserCancelled) {
			resp.Status = "CANCELLED"
		} else {
			resp.Reason = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionFor returns the one confirmation session for an order, creating it
// on first sight. Re-entries (remounts, duplicate redirects) share the same
// session and therefore the same latch.
func (h *Handler) sessionFor(orderID string, params payment.SuccessParams) *payment.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if orderID != "" {
		if s, ok := h.sessions[orderID]; ok {
			return s
		}
	}

	s := h.guard.NewSession(params)
	if orderID != "" {
		h.sessions[orderID] = s
	}
	return s
}

func (h *Handler) markReturned(orderID string, success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.drafts[orderID]; ok {
		d.MarkReturned(success)
	}
}

func (h *Handler) writeCart(w http.ResponseWriter, e *engine) {
	writeJSON(w, http.StatusOK, cartResponse{
		Snapshot:    e.store.Snapshot(),
		SelectedIDs: e.store.SelectedIDs(),
		AllSelected: e.store.AllSelected(),
		Pricing:     e.store.Pricing(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var rejection *remote.ServerRejection
	var netErr *remote.NetworkError

	switch {
	case checkout.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrNoItemsGiven):
		status = http.StatusBadRequest
	case errors.Is(err, checkout.ErrNotValidated), errors.Is(err, checkout.ErrAlreadySubmitted):
		// Draft state conflicts are caller-resolvable, not server faults.
		status = http.StatusConflict
	case errors.Is(err, cart.ErrLoadSuperseded):
		status = http.StatusConflict
	case errors.As(err, &rejection), errors.As(err, &netErr):
		status = http.StatusBadGateway
	}

	logger.FromCtx(r.Context()).Warn("Request failed",
		zap.Int("status", status),
		zap.Error(err),
	)

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
