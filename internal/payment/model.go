package payment

import (
	"strconv"
	"sync"
	"time"
)

type ConfirmationState string

const (
	StatePending   ConfirmationState = "PENDING"
	StateConfirmed ConfirmationState = "CONFIRMED"
	StateFailed    ConfirmationState = "FAILED"
)

// SuccessParams are the gateway's success-return parameters, as received
// (amount still a string). Absence of any field is a local failure; no
// confirmation call may be issued.
type SuccessParams struct {
	PaymentKey string
	OrderID    string
	Amount     string
}

// Session is one payment confirmation attempt. The exactly-once latch lives
// here, on the session itself, so the guarantee holds no matter how many
// callers observe the same session. Confirmed and Failed are terminal.
type Session struct {
	PaymentKey string
	OrderID    string
	Amount     int64
	CreatedAt  time.Time

	mu     sync.Mutex
	latch  bool
	state  ConfirmationState
	reason error
	done   chan struct{}
}

func newSession(paymentKey, orderID string, amount int64) *Session {
	return &Session{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
		CreatedAt:  time.Now(),
		state:      StatePending,
		done:       make(chan struct{}),
	}
}

// State returns the current confirmation state.
func (s *Session) State() ConfirmationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the terminal state and failure reason, blocking until the
// session reaches one.
func (s *Session) Outcome() (ConfirmationState, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.reason
}

func (s *Session) failLocked(reason error) {
	s.state = StateFailed
	s.reason = reason
	close(s.done)
}

func parseAmount(raw string) (int64, bool) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
