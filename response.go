package odoorpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Response is the envelope the gateway answers a [Request] with, carrying a
// typed Result when the call succeeded or a [*ServerError] when the backend
// reported a failure.
//
// Responses are produced only by decoding, and the decoder is deliberately
// permissive. Gateway replies are JSON-RPC shaped but not strict: the id comes
// back as a number or a string depending on the path the call took, and the
// result and error members may be missing, null, or of an unexpected shape.
// Only the jsonrpc member is structural; everything else degrades to absent
// instead of failing the envelope.
//
// A decoded Response can carry an error even though the HTTP exchange
// succeeded. Callers must check both the returned pipeline error and
// [Response.IsError]:
//
//	resp, err := odoorpc.Search(ctx, client, "res.partner", domain, kw)
//	if err != nil {
//	    // transport or decoding failure, no usable envelope
//	}
//	if resp.IsError() {
//	    // the backend rejected the call; resp.Error has code and message
//	}
//
//nolint:govet //We want order to match the wire shape, even if not required.
type Response[T any] struct {
	Version string       `json:"jsonrpc"`
	Result  *T           `json:"result,omitempty"`
	Error   *ServerError `json:"error,omitempty"`
	ID      string       `json:"id"`
}

// IsError returns true if the envelope carries a server error object.
func (r *Response[T]) IsError() bool {
	return r.Error != nil
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	//nolint:govet //Field order mirrors the wire shape.
	var raw struct {
		Version json.RawMessage `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   json.RawMessage `json:"error"`
		ID      json.RawMessage `json:"id"`
	}

	if err := Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	switch HintType(raw.Version) {
	case TypeEmpty, TypeNull:
		return fmt.Errorf("%w: envelope is missing the jsonrpc member", ErrDecoding)
	}

	if err := Unmarshal(raw.Version, &r.Version); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	r.ID = wireID(raw.ID)
	r.Result = lenientDecode[T](raw.Result)
	r.Error = lenientDecode[ServerError](raw.Error)

	return nil
}

// wireID normalizes the envelope id, which the gateway sends as either a JSON
// number or a JSON string depending on the path the call took. Null and absent
// ids are empty; the hint check runs first because [Unmarshal] leaves an
// integer target untouched on a JSON null instead of rejecting it. Integers
// are rendered in decimal; anything else that is not a string becomes the
// empty id. This can never fail the envelope.
func wireID(data json.RawMessage) string {
	switch HintType(data) {
	case TypeEmpty, TypeNull:
		return ""
	}

	var n int64
	if err := Unmarshal(data, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}

	var s string
	if err := Unmarshal(data, &s); err == nil {
		return s
	}

	return ""
}

// lenientDecode decodes data into a fresh T, returning nil when data is
// absent, null, or does not decode as a T.
func lenientDecode[T any](data json.RawMessage) *T {
	switch HintType(data) {
	case TypeEmpty, TypeNull:
		return nil
	}

	v := new(T)
	if err := Unmarshal(data, v); err != nil {
		return nil
	}

	return v
}
