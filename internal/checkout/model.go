package checkout

import (
	"time"

	"glowcart/internal/cart"
	"glowcart/internal/pricing"
)

type State string

const (
	StateDraft           State = "DRAFT"
	StateValidated       State = "VALIDATED"
	StateSubmitted       State = "SUBMITTED"
	StateAwaitingGateway State = "AWAITING_GATEWAY_REDIRECT"
	StateReturnedSuccess State = "RETURNED_SUCCESS"
	StateReturnedFail    State = "RETURNED_FAIL"
)

type ShippingInfo struct {
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	RoadAddress   string `json:"roadAddress"`
	DetailAddress string `json:"detailAddress,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

// Draft is one checkout attempt. The selected items, shipping input and
// pricing are frozen at creation; only the state advances.
type Draft struct {
	SelectedItems []cart.Item
	Shipping      ShippingInfo
	Pricing       pricing.Summary
	CreatedAt     time.Time

	// Filled on submission.
	OrderID string

	// GatewayReference is unique per payment attempt, even when the same
	// order is retried: the gateway requires it.
	GatewayReference string

	state State
}

func (d *Draft) State() State {
	return d.state
}

// MarkReturned records the gateway's return outcome; the confirmation
// handshake itself is owned by the payment guard.
func (d *Draft) MarkReturned(success bool) {
	if success {
		d.state = StateReturnedSuccess
	} else {
		d.state = StateReturnedFail
	}
}
