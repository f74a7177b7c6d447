package service

import (
	"errors"
	"fmt"

	"btc-data-api/internal/upstream"
)

// ErrorType classifies a service failure for the HTTP layer
type ErrorType int

const (
	// ErrorTypeBadInput covers invalid fiat codes, malformed dates and
	// invalid address/txid/block identifiers
	ErrorTypeBadInput ErrorType = iota
	// ErrorTypeUpstream covers provider timeouts, connection failures and
	// unexpected statuses
	ErrorTypeUpstream
	// ErrorTypeMalformed covers provider payloads missing expected fields
	ErrorTypeMalformed
	ErrorTypeUnknown
)

// ServiceError represents a service-specific error with type information
type ServiceError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// badInput builds a client-input error
func badInput(message string, cause error) *ServiceError {
	return &ServiceError{Type: ErrorTypeBadInput, Message: message, Cause: cause}
}

// mapUpstreamError converts an upstream failure into a ServiceError.
// Provider rejections become bad-input errors with badInputMessage; transport
// and shape failures keep fetchMessage.
func mapUpstreamError(err error, badInputMessage, fetchMessage string) *ServiceError {
	var upstreamErr *upstream.Error
	if errors.As(err, &upstreamErr) {
		switch upstreamErr.Kind {
		case upstream.KindNotFound:
			return badInput(badInputMessage, err)
		case upstream.KindMalformed:
			return &ServiceError{Type: ErrorTypeMalformed, Message: fetchMessage, Cause: err}
		}
	}
	return &ServiceError{Type: ErrorTypeUpstream, Message: fetchMessage, Cause: err}
}
