package registry

// notFoundError signals an operation on an unknown producer ID.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "Producer not found: " + e.id }

// ErrProducerNotFound returns the error used when id is not registered.
func ErrProducerNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates an unknown producer ID.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}
