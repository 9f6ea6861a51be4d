package cart

import (
	"glowcart/internal/pricing"
	"glowcart/internal/remote"
)

func mapRemoteItems(rows []remote.CartItem) []Item {
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, Item{
			ID:        r.ID,
			ProductID: r.ProductID,
			Name:      r.Name,
			Brand:     r.Brand,
			UnitPrice: r.UnitPrice,
			Quantity:  r.Quantity,
			ImageURL:  r.ImageURL,
		})
	}
	return items
}

// ToRemoteItems converts domain items back to the backend's wire shape, for
// order submission.
func ToRemoteItems(items []Item) []remote.CartItem {
	out := make([]remote.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, remote.CartItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Brand:     it.Brand,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}
	return out
}

// PricingLines projects items onto the pricing engine's input.
func PricingLines(items []Item) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

func itemIDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
