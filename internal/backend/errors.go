package backend

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component that talks to the backend.
var (
	// ErrUnsupportedFormat is a client-side, pre-flight rejection of an upload.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrNetworkFailure means the request could not complete (dial, timeout, read).
	ErrNetworkFailure = errors.New("network failure")
	// ErrServerRejected means the backend answered with an HTTP error status or
	// a payload-level failure flag.
	ErrServerRejected = errors.New("server rejected request")
)

// RequestError describes a failed backend call. Kind is one of the
// taxonomy sentinels above, so callers can use errors.Is.
type RequestError struct {
	Endpoint string
	Status   int
	Message  string
	Kind     error
	Err      error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Endpoint, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Is(target error) bool {
	return target == e.Kind
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func networkError(endpoint string, err error) error {
	return &RequestError{Endpoint: endpoint, Kind: ErrNetworkFailure, Err: err}
}

func rejectedError(endpoint string, status int, message string) error {
	return &RequestError{Endpoint: endpoint, Status: status, Message: message, Kind: ErrServerRejected}
}
