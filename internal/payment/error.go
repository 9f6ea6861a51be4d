package payment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUserCancelled marks a payment the buyer abandoned at the gateway. It
// is a normal outcome, not a fault: callers suppress it from error
// reporting.
var ErrUserCancelled = errors.New("payment cancelled by user")

// codeUserCancelled is the gateway code for buyer abandonment.
const codeUserCancelled = "PAY_PROCESS_CANCELED"

// PreconditionError reports gateway return parameters missing on the
// success callback. It short-circuits to Failed with no network call.
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("missing gateway return parameters: %s", strings.Join(e.Missing, ", "))
}

// GatewayError is a confirmation rejected by the payment gateway.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected payment [%s]: %s", e.Code, e.Message)
}

// FromFailureParams maps the gateway's failure-return parameters to an
// error, distinguishing buyer cancellation from genuine gateway faults.
func FromFailureParams(code, message string) error {
	if code == codeUserCancelled {
		return fmt.Errorf("%w: %s", ErrUserCancelled, message)
	}
	return &GatewayError{Code: code, Message: message}
}
