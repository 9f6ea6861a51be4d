package payment

import (
	"context"
	"database/sql"
	"time"
)

// OutcomeRecord is the persisted terminal result of one confirmation
// session.
type OutcomeRecord struct {
	OrderID     string
	PaymentKey  string
	Amount      int64
	State       ConfirmationState
	Reason      string
	ConfirmedAt time.Time
}

// Ledger persists confirmation outcomes, so a terminal result survives a
// process restart and duplicate charges stay auditable.
type Ledger interface {
	RecordOutcome(ctx context.Context, rec OutcomeRecord) error
	GetByOrderID(ctx context.Context, orderID string) (*OutcomeRecord, error)
}

type ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) RecordOutcome(ctx context.Context, rec OutcomeRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO payment_confirmations (order_id, payment_key, amount, state, reason, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (order_id) DO NOTHING
	`, rec.OrderID, rec.PaymentKey, rec.Amount, string(rec.State), rec.Reason)
	return err
}

func (l *ledger) GetByOrderID(ctx context.Context, orderID string) (*OutcomeRecord, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT order_id, payment_key, amount, state, reason, confirmed_at
		FROM payment_confirmations
		WHERE order_id = $1
	`, orderID)

	rec := &OutcomeRecord{}
	var state string
	err := row.Scan(&rec.OrderID, &rec.PaymentKey, &rec.Amount, &state, &rec.Reason, &rec.ConfirmedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.State = ConfirmationState(state)
	return rec, nil
}
