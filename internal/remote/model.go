package remote

import "glowcart/internal/pricing"

// CartItem is the backend's wire shape for a cart line.
type CartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int64  `json:"quantity"`
	ImageURL  string `json:"imageUrl"`
}

// ServerSummary is the optional server-computed total attached to GET /cart.
// It is an initial-load hint only; selection-dependent figures are always
// recomputed client-side.
type ServerSummary struct {
	TotalAmount int64 `json:"totalAmount"`
	DeliveryFee int64 `json:"deliveryFee"`
	FinalAmount int64 `json:"finalAmount"`
}

type CartPayload struct {
	Items   []CartItem     `json:"items"`
	Summary *ServerSummary `json:"summary,omitempty"`
}

type ShippingInfo struct {
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	RoadAddress   string `json:"roadAddress"`
	DetailAddress string `json:"detailAddress,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

type OrderRequest struct {
	ShippingInfo ShippingInfo    `json:"shippingInfo"`
	Items        []CartItem      `json:"items"`
	Pricing      pricing.Summary `json:"pricing"`
}

type OrderResponse struct {
	OrderID string `json:"orderId"`
}

type updateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type updateQuantityResponse struct {
	Quantity int64 `json:"quantity"`
}

type deleteItemsRequest struct {
	IDs []string `json:"ids"`
}
