package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden indicates the platform rejected the operation for lack of
	// permissions.
	ErrForbidden = errors.New("forbidden by platform")
	// ErrChannelNotFound indicates a channel lookup by name found nothing.
	ErrChannelNotFound = errors.New("channel not found")
)

// TransportError wraps a platform API failure that is neither a permission
// problem nor a lookup miss.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("platform transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err with the failing operation name.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}
