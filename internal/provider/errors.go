package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError carries the upstream provider's failure details. Details is
// the raw error payload when the provider returned valid JSON;
// Validation marks a 2xx response that failed shape validation and must
// not be treated as a successful delivery.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
	Validation bool
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "whatsapp api error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsValidation reports whether an error is a delivery-validation
// failure, i.e. the provider accepted the request but its response
// lacked the expected sent-message descriptors.
func IsValidation(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Validation
	}
	return false
}
