package odoorpc

import (
	"errors"
	"fmt"
)

// The closed set of failure kinds a dispatched call can surface. Every error
// returned by [Dispatch] and the action helpers either is one of these, wraps
// one of these, is a [*ServerError], or is a context error from the caller's
// own [context.Context].
var (
	// ErrNotConfigured is returned when dispatching through a [Client] before
	// [Client.Configure] has succeeded. No network traffic is attempted.
	ErrNotConfigured = errors.New("odoorpc: client is not configured")

	// ErrInvalidURL is returned by [Client.Configure] when the gateway URL
	// cannot be parsed or lacks a scheme or host.
	ErrInvalidURL = errors.New("odoorpc: invalid gateway url")

	// ErrNetwork wraps transport-level failures: connection errors, timeouts
	// and response bodies that could not be read.
	ErrNetwork = errors.New("odoorpc: network error")

	// ErrInvalidResponse is returned when the gateway answers with a success
	// status but the reply is not usable as JSON, or advertises a content
	// encoding this client did not ask for.
	ErrInvalidResponse = errors.New("odoorpc: invalid response from gateway")

	// ErrEncoding wraps failures serializing a request envelope.
	ErrEncoding = errors.New("odoorpc: encoding error")

	// ErrDecoding wraps failures deserializing a response envelope or one of
	// its members.
	ErrDecoding = errors.New("odoorpc: decoding error")
)

// ServerError is the error object the gateway or the Odoo backend reports,
// either as the `error` member of a response envelope or as the entire body of
// a non-2xx reply.
//
// [ServerError] supports the go error interface and may be used as a normal error.
//
//nolint:govet //We want order to match the wire shape, even if not required.
type ServerError struct {
	Data    Value  `json:"data,omitempty,omitzero"`
	Message string `json:"message"`
	Code    int64  `json:"code"`
}

// NewServerError returns a new [ServerError] with its Code and Message fields
// assigned to the given values.
func NewServerError(code int64, msg string) *ServerError {
	return &ServerError{Code: code, Message: msg}
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("odoorpc: server error (code %d): %s", e.Code, e.Message)
}

// Is returns true if t is a [*ServerError] and their Code fields match.
func (e *ServerError) Is(t error) bool {
	if srvErr, ok := t.(*ServerError); ok {
		return e.Code == srvErr.Code
	}

	return false
}

// UnmarshalJSON implements [json.Unmarshaler].
//
// Unlike most decoders in this package it is strict: both the code and message
// members must be present, so that arbitrary JSON objects (proxy error pages,
// unrelated payloads) do not masquerade as backend errors.
func (e *ServerError) UnmarshalJSON(b []byte) error {
	//nolint:govet //Field order mirrors the wire shape.
	var raw struct {
		Code    *int64  `json:"code"`
		Message *string `json:"message"`
		Data    Value   `json:"data"`
	}

	if err := Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	if raw.Code == nil || raw.Message == nil {
		return fmt.Errorf("%w: server error is missing code or message", ErrDecoding)
	}

	e.Code = *raw.Code
	e.Message = *raw.Message
	e.Data = raw.Data

	return nil
}
