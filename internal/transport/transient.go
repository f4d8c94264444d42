package transport

import (
	"errors"
	"syscall"
)

// isTransient reports accept errors caused by resource pressure or a peer
// that went away before the accept completed.
func isTransient(err error) bool {
	return errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.EINTR)
}
