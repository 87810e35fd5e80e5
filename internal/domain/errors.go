package domain

import "errors"

var (
	// ErrValidation marks client-input failures that map to HTTP 400.
	ErrValidation = errors.New("validation error")

	// ErrSkip marks an inbound element that lacks the identity fields
	// needed to build a Message. The rest of the batch continues.
	ErrSkip = errors.New("message skipped")
)
