package remote

import "fmt"

// NetworkError wraps a transport-level failure (timeout, connection refused).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend request failed (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerRejection is a 4xx/5xx response from the backend.
type ServerRejection struct {
	Op     string
	Status int
	Body   string
}

func (e *ServerRejection) Error() string {
	return fmt.Sprintf("backend rejected %s: status %d: %s", e.Op, e.Status, e.Body)
}
