package message

// decodeError reports why a line is not a structured envelope. It never
// escapes Decode, which falls back to the simple form instead.
type decodeError struct{ reason string }

func (e decodeError) Error() string { return "decode envelope: " + e.reason }

// IsDecodeError reports whether err came from structured decoding.
func IsDecodeError(err error) bool {
	_, ok := err.(decodeError)
	return ok
}
