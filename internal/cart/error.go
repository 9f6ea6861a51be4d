package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrNoItemsGiven    = errors.New("no item ids given")

	// -- Resource State --
	ErrItemNotFound = errors.New("cart item not found")

	// -- Load lifecycle --
	ErrLoadSuperseded = errors.New("cart load superseded by a newer load")
)
