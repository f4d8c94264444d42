package client

import "fmt"

// invalidInputError marks malformed URIs, addresses, protocols and commands.
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }

// ErrInvalidInput constructs an invalid-input error with a user-facing message.
func ErrInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err indicates malformed input.
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}

// deliveryError wraps a failed send to one subscriber.
type deliveryError struct {
	addr string
	op   string
	err  error
}

func (e deliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %s: %v", e.addr, e.op, e.err)
}

func (e deliveryError) Unwrap() error { return e.err }

// ErrDelivery wraps cause as a delivery failure to addr.
func ErrDelivery(addr string, cause error) error {
	return deliveryError{addr: addr, op: "send", err: cause}
}

// IsDeliveryError reports whether err is a failed send.
func IsDeliveryError(err error) bool {
	_, ok := err.(deliveryError)
	return ok
}
