package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glowcart/internal/cart"
	"glowcart/internal/logger"
	"glowcart/internal/metrics"
	"glowcart/internal/remote"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator drives one checkout attempt through
// Draft → Validated → Submitted → AwaitingGatewayRedirect. The return trip
// from the gateway belongs to the payment guard.
type Orchestrator struct {
	store  *cart.Store
	client remote.Client
}

func NewOrchestrator(store *cart.Store, client remote.Client) *Orchestrator {
	return &Orchestrator{store: store, client: client}
}

// BeginCheckout snapshots the current selection and validates the shipping
// input. Failing validation never issues a network call.
func (o *Orchestrator) BeginCheckout(shipping ShippingInfo) (*Draft, error) {
	selected := o.store.SelectedItems()

	draft := &Draft{
		SelectedItems: selected,
		Shipping:      shipping,
		Pricing:       o.store.Pricing(),
		CreatedAt:     time.Now(),
		state:         StateDraft,
	}

	if err := validate(draft); err != nil {
		return nil, err
	}

	draft.state = StateValidated
	return draft, nil
}

func validate(d *Draft) error {
	if len(d.SelectedItems) == 0 {
		return ErrNothingSelected
	}
	if strings.TrimSpace(d.Shipping.ReceiverName) == "" {
		return ErrMissingReceiverName
	}
	if strings.TrimSpace(d.Shipping.ReceiverPhone) == "" {
		return ErrMissingReceiverPhone
	}
	if strings.TrimSpace(d.Shipping.RoadAddress) == "" {
		return ErrMissingRoadAddress
	}
	return nil
}

// Submit sends the draft to the order endpoint, records the issued orderId,
// and derives the per-attempt gateway reference. On success the draft is in
// AwaitingGatewayRedirect, the last transition owned by this component.
func (o *Orchestrator) Submit(ctx context.Context, d *Draft) error {
	if d.state != StateValidated {
		if d.state == StateSubmitted || d.state == StateAwaitingGateway {
			return ErrAlreadySubmitted
		}
		return ErrNotValidated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("op", "Checkout.Submit"),
		zap.Int("items", len(d.SelectedItems)),
		zap.Int64("final_amount", d.Pricing.FinalAmount),
	)

	orderID, err := o.client.SubmitOrder(ctx, remote.OrderRequest{
		ShippingInfo: remote.ShippingInfo{
			ReceiverName:  d.Shipping.ReceiverName,
			ReceiverPhone: d.Shipping.ReceiverPhone,
			RoadAddress:   d.Shipping.RoadAddress,
			DetailAddress: d.Shipping.DetailAddress,
			Memo:          d.Shipping.Memo,
		},
		Items:   cart.ToRemoteItems(d.SelectedItems),
		Pricing: d.Pricing,
	})
	if err != nil {
		log.Error("Order submission failed", zap.Error(err))
		return fmt.Errorf("failed to submit order: %w", err)
	}

	d.OrderID = orderID
	d.state = StateSubmitted
	metrics.OrdersSubmitted.Inc()

	// The gateway requires a reference unique per payment attempt, even when
	// the same order is retried.
	d.GatewayReference = newGatewayReference(orderID)
	d.state = StateAwaitingGateway

	log.Info("Order submitted",
		zap.String("order_id", orderID),
		zap.String("gateway_reference", d.GatewayReference),
	)
	return nil
}

func newGatewayReference(orderID string) string {
	return fmt.Sprintf("%s-%d-%s", orderID, time.Now().UnixMilli(), uuid.NewString()[:8])
}
