package odoorpc

// Optional is a field wrapper for the backend's falsy encoding of missing
// data: where a typed value is expected, an unset field arrives as the boolean
// false (or null) instead.
//
// Decoding never fails. JSON null and false read back as absent, and any
// payload that does not decode as T also reads back as absent, so one odd
// field cannot sink the record containing it. A JSON true is not treated as a
// falsy marker; it is offered to T itself, which keeps Optional[bool] able to
// hold a real true.
//
// The zero value is absent and marshals as null.
//
// Example:
//
//	type partner struct {
//	    Name  string                   `json:"name"`
//	    Email odoorpc.Optional[string] `json:"email"`
//	}
type Optional[T any] struct {
	value   T
	present bool
}

// NewOptional returns an [Optional] holding v.
func NewOptional[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Get returns the held value and true if it is present.
func (o *Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// GetOr returns the held value, or fallback if it is absent.
func (o *Optional[T]) GetOr(fallback T) T {
	if !o.present {
		return fallback
	}

	return o.value
}

// IsZero returns true if no value is present.
func (o *Optional[T]) IsZero() bool {
	return !o.present
}

// UnmarshalJSON implements [json.Unmarshaler].
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	*o = Optional[T]{}

	switch HintType(data) {
	case TypeNull:
		return nil
	case TypeBool:
		var b bool
		if err := Unmarshal(data, &b); err != nil || !b {
			return nil
		}
		// A literal true falls through to T below.
	}

	var v T
	if err := Unmarshal(data, &v); err != nil {
		return nil
	}

	o.value = v
	o.present = true

	return nil
}

// MarshalJSON implements [json.Marshaler].
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}

	return Marshal(o.value)
}
