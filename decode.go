package odoorpc

import (
	"errors"
	"fmt"
)

// ErrUnsupportedJSON is returned when data handed to a [Value] decoder is not
// part of the JSON grammar at all.
var ErrUnsupportedJSON = errors.New("odoorpc: unsupported JSON value")

// UnmarshalJSON implements [json.Unmarshaler].
//
// Any well-formed JSON value decodes, selected by its token type in the order
// null, string, number, bool, array, object. The order is observable for
// scalars: a quoted numeric literal like "5" stays a [KindString] and is never
// reparsed as a number, and true/false become [KindBool], never a truthy
// string. Arrays and objects decode their members recursively under the same
// rules.
//
// Decoding never produces [KindInvalid]. It fails, wrapping [ErrDecoding],
// only when data falls outside the JSON grammar.
func (v *Value) UnmarshalJSON(data []byte) error {
	switch HintType(data) {
	case TypeNull:
		var tok any
		if err := Unmarshal(data, &tok); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		*v = Value{kind: KindNull}
	case TypeString:
		var s string
		if err := Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		*v = Value{kind: KindString, str: s}
	case TypeNumber:
		var n float64
		if err := Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		*v = Value{kind: KindNumber, num: n}
	case TypeBool:
		var b bool
		if err := Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		*v = Value{kind: KindBool, b: b}
	case TypeArray:
		var arr []Value
		if err := Unmarshal(data, &arr); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		*v = Value{kind: KindArray, arr: arr}
	case TypeObject:
		var obj map[string]Value
		if err := Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		*v = Value{kind: KindObject, obj: obj}
	default:
		return fmt.Errorf("%w: %w", ErrDecoding, ErrUnsupportedJSON)
	}

	return nil
}

// DecodeValue decodes data into a [Value].
//
// It is the entry point for whole documents of unknown shape; nested decoding
// happens automatically wherever a [Value] appears as a field or type
// parameter.
//
// Example:
//
//	v, err := odoorpc.DecodeValue([]byte(`{"id": 42, "name": "Acme"}`))
func DecodeValue(data []byte) (Value, error) {
	var v Value
	if err := Unmarshal(data, &v); err != nil {
		return Value{}, wrapDecodeErr(err)
	}

	return v, nil
}

// wrapDecodeErr ensures err carries the [ErrDecoding] sentinel exactly once.
func wrapDecodeErr(err error) error {
	if errors.Is(err, ErrDecoding) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrDecoding, err)
}
