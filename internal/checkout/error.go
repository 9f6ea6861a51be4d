package checkout

import "errors"

// Validation errors are resolved entirely client-side and never reach the
// network layer.
var (
	ErrNothingSelected      = errors.New("no items selected for checkout")
	ErrMissingReceiverName  = errors.New("receiver name is required")
	ErrMissingReceiverPhone = errors.New("receiver phone is required")
	ErrMissingRoadAddress   = errors.New("road address is required")
	ErrNotValidated         = errors.New("checkout draft not validated")
	ErrAlreadySubmitted     = errors.New("checkout draft already submitted")
)

var validationErrs = []error{
	ErrNothingSelected,
	ErrMissingReceiverName,
	ErrMissingReceiverPhone,
	ErrMissingRoadAddress,
}

// IsValidationError reports whether err is a pre-network validation failure.
func IsValidationError(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
