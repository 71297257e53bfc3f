package request

import "errors"

var (
	// ErrInternalServer is returned to clients when a handler fails unexpectedly.
	ErrInternalServer = errors.New("internal server error")

	// ErrTooManyRequests is returned to clients when they are rate limited.
	ErrTooManyRequests = errors.New("too many requests")
)
