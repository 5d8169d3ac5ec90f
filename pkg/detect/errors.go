package detect

import (
	"fmt"
	"net/http"
)

// DefaultFailureMessage is used when the service reports failure without text.
const DefaultFailureMessage = "Detection failed"

// ServerError is a non-2xx response from the detection service.
type ServerError struct {
	Status int
	// Message is the service's error text when the body carried one.
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("detect: server error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("detect: server error (HTTP %d %s)", e.Status, http.StatusText(e.Status))
}

// DetectionFailedError is a 2xx response whose success flag is false.
type DetectionFailedError struct {
	Message string
}

// Error implements the error interface.
func (e *DetectionFailedError) Error() string {
	return "detect: " + e.Message
}

// NetworkError is a transport failure before any response was received.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("detect: network error: %v", e.Err)
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// InvalidResponseError is a 2xx response that could not be decoded or
// violated the result invariants.
type InvalidResponseError struct {
	Err error
}

// Error implements the error interface.
func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("detect: invalid response: %v", e.Err)
}

// Unwrap returns the decoding error.
func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}
