package payment

import (
	"context"

	"glowcart/internal/logger"
	"glowcart/internal/metrics"

	"go.uber.org/zap"
)

// Confirmer issues the one confirmation call to the payment gateway.
type Confirmer interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error
}

// Guard owns the return trip from the gateway and enforces exactly-once
// confirmation semantics. Retries are never automatic: a retry is a new
// user-initiated attempt with a new Session.
type Guard struct {
	confirmer Confirmer
	ledger    Ledger
}

func NewGuard(confirmer Confirmer, ledger Ledger) *Guard {
	return &Guard{confirmer: confirmer, ledger: ledger}
}

// NewSession validates the gateway's success-return parameters and creates
// the confirmation session. Any missing parameter yields a session already
// in Failed; no network call will ever be issued for it.
func (g *Guard) NewSession(p SuccessParams) *Session {
	var missing []string
	if p.PaymentKey == "" {
		missing = append(missing, "paymentKey")
	}
	if p.OrderID == "" {
		missing = append(missing, "orderId")
	}
	amount, amountOK := parseAmount(p.Amount)
	if p.Amount == "" {
		missing = append(missing, "amount")
	} else if !amountOK {
		missing = append(missing, "amount (not a valid integer)")
	}

	s := newSession(p.PaymentKey, p.OrderID, amount)
	if len(missing) > 0 {
		s.mu.Lock()
		s.latch = true
		s.failLocked(&PreconditionError{Missing: missing})
		s.mu.Unlock()
		metrics.PaymentConfirmations.WithLabelValues("precondition_failed").Inc()
	}
	return s
}

// Confirm drives the session to a terminal state, issuing at most one
// confirmation call over the session's lifetime. Re-entry while the call is
// in flight does not issue a second call; it waits for the first call's
// resolution and reports its outcome.
//
// The call is non-cancelable once issued: confirmation has an external
// financial side effect, so it runs to completion even if the caller's
// context is cancelled.
func (g *Guard) Confirm(ctx context.Context, s *Session) (ConfirmationState, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", "PaymentGuard.Confirm"),
		zap.String("order_id", s.OrderID),
		zap.Int64("amount", s.Amount),
	)

	s.mu.Lock()
	if s.latch {
		s.mu.Unlock()
		log.Debug("Confirmation re-entry, deferring to first call")
		return s.Outcome()
	}
	// Latch set before the call is issued.
	s.latch = true
	s.mu.Unlock()

	log.Info("Issuing payment confirmation")
	err := g.confirmer.Confirm(context.WithoutCancel(ctx), s.PaymentKey, s.OrderID, s.Amount)

	s.mu.Lock()
	if err != nil {
		s.failLocked(err)
	} else {
		s.state = StateConfirmed
		close(s.done)
	}
	s.mu.Unlock()

	g.record(ctx, s)

	state, reason := s.state, s.reason
	if reason != nil {
		metrics.PaymentConfirmations.WithLabelValues("failed").Inc()
		log.Error("Payment confirmation failed", zap.Error(reason))
	} else {
		metrics.PaymentConfirmations.WithLabelValues("confirmed").Inc()
		log.Info("Payment confirmed")
	}
	return state, reason
}

func (g *Guard) record(ctx context.Context, s *Session) {
	if g.ledger == nil {
		return
	}

	rec := OutcomeRecord{
		OrderID:    s.OrderID,
		PaymentKey: s.PaymentKey,
		Amount:     s.Amount,
		State:      s.state,
	}
	if s.reason != nil {
		rec.Reason = s.reason.Error()
	}

	if err := g.ledger.RecordOutcome(context.WithoutCancel(ctx), rec); err != nil {
		logger.FromCtx(ctx).Error("Failed to record confirmation outcome",
			zap.String("order_id", s.OrderID),
			zap.Error(err),
		)
	}
}
