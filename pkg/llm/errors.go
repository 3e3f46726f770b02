package llm

import (
	"errors"
	"fmt"
)

// GatewayError wraps a failed call to the LLM provider. The assistant path
// performs no retries, so classification only carries what the handler and
// logs need: the upstream status (when known) and the cause.
type GatewayError struct {
	StatusCode int // 0 if unknown (transport-level failure)
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm gateway: %s (HTTP %d): %v", e.Message, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("llm gateway: %s: %v", e.Message, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// IsGatewayError reports whether err originated at the LLM gateway.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
