package transport

import (
	"errors"
	"fmt"
	"syscall"
)

// bindError reports a listener that could not be opened.
type bindError struct {
	addr string
	hint string
	err  error
}

func (e bindError) Error() string {
	if e.hint != "" {
		return fmt.Sprintf("bind %s: %v (%s)", e.addr, e.err, e.hint)
	}
	return fmt.Sprintf("bind %s: %v", e.addr, e.err)
}

func (e bindError) Unwrap() error { return e.err }

// ErrBind wraps cause as a bind failure on addr and attaches a hint for
// the common causes.
func ErrBind(addr string, cause error) error {
	hint := ""
	switch {
	case errors.Is(cause, syscall.EADDRINUSE):
		hint = "address already in use; is another instance running?"
	case errors.Is(cause, syscall.EACCES), errors.Is(cause, syscall.EPERM):
		hint = "permission denied; ports below 1024 need elevated privileges"
	}
	return bindError{addr: addr, hint: hint, err: cause}
}

// IsBindError reports whether err is a listener bind failure.
func IsBindError(err error) bool {
	var be bindError
	return errors.As(err, &be)
}
