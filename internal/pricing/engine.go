package pricing

// Amounts are integers in the smallest currency unit.
const (
	FreeShippingThreshold int64 = 30000
	StandardDeliveryFee   int64 = 3000
)

// Line is a single selected cart line.
type Line struct {
	UnitPrice int64
	Quantity  int64
}

// Summary is the derived order total. It is recomputed from the selected
// lines on every read and never stored.
type Summary struct {
	TotalAmount int64 `json:"totalAmount"`
	DeliveryFee int64 `json:"deliveryFee"`
	FinalAmount int64 `json:"finalAmount"`
}

// Compute derives totals from the selected lines. The delivery fee is waived
// for an empty selection and for totals at or above the free-shipping
// threshold.
func Compute(selected []Line) Summary {
	var total int64
	for _, l := range selected {
		total += l.UnitPrice * l.Quantity
	}

	var fee int64
	if total > 0 && total < FreeShippingThreshold {
		fee = StandardDeliveryFee
	}

	return Summary{
		TotalAmount: total,
		DeliveryFee: fee,
		FinalAmount: total + fee,
	}
}
