package arena

import "errors"

// Per-message failures. None of them closes the connection.
var (
	ErrInvalidIntent    = errors.New("invalid intent")
	ErrUnboundIntent    = errors.New("connection is not bound to a match")
	ErrMalformedMessage = errors.New("malformed message")
	ErrDeliveryFailure  = errors.New("delivery failure")
)
