package odoorpc

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Kind identifies which JSON shape a [Value] holds.
type Kind int

const (
	KindInvalid Kind = iota // Zero value of [Value], not a JSON shape. Marshals as null.
	KindNull                // JSON null.
	KindString              // JSON string.
	KindNumber              // JSON number (double precision).
	KindBool                // JSON boolean.
	KindArray               // JSON array of [Value].
	KindObject              // JSON object with [Value] members.
)

// Value is a dynamically-shaped JSON value: exactly one of null, string,
// number, boolean, array-of-Value or object-of-Value.
//
// Odoo calls take heterogeneous parameters (domain filters mix strings,
// numbers and booleans within one array) and return payloads whose shape is
// not always known ahead of time. [Value] covers both directions: the
// constructors build arbitrary JSON for the Params side of a [Request], and
// the decoder accepts any well-formed JSON on the result side.
//
// A [Value] is immutable once built. The constructors copy their composite
// inputs, so later changes to a slice or map passed in are not observed.
// The zero value is [KindInvalid]; it marshals as null and is produced only by
// construction, never by decoding.
//
// Example (the domain filter [["is_company", "=", true]]):
//
//	domain := odoorpc.NewArray(
//	    odoorpc.NewArray(odoorpc.NewString("is_company"), odoorpc.NewString("="), odoorpc.NewBool(true)),
//	)
type Value struct {
	obj  map[string]Value
	arr  []Value
	str  string
	num  float64
	kind Kind
	b    bool
}

// NewString returns a [Value] holding the given JSON string.
func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

// NewNumber returns a [Value] holding the given JSON number.
//
// JSON has no representation for NaN or the infinities, so those collapse to
// the null [Value] rather than poisoning a later serialization.
func NewNumber(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return NewNull()
	}

	return Value{kind: KindNumber, num: n}
}

// NewBool returns a [Value] holding the given JSON boolean.
func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NewNull returns the JSON null [Value].
func NewNull() Value {
	return Value{kind: KindNull}
}

// NewArray returns a [Value] holding the given elements as a JSON array.
// The elements are copied.
func NewArray(elems ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(elems)}
}

// NewObject returns a [Value] holding the given members as a JSON object.
// The map is copied.
func NewObject(members map[string]Value) Value {
	return Value{kind: KindObject, obj: maps.Clone(members)}
}

// FromNative converts a native Go value into a [Value]. It never fails:
// inputs with no JSON representation collapse to the null [Value].
//
// Numbers of any width convert to [KindNumber]. []any and map[string]any
// convert element-wise. Anything else is round-tripped through [Marshal], so
// struct types with json tags convert to objects.
//
// Example:
//
//	record := odoorpc.FromNative(map[string]any{
//	    "name":       "Acme",
//	    "is_company": true,
//	    "user_id":    7,
//	})
func FromNative(v any) Value {
	switch t := v.(type) {
	case nil:
		return NewNull()
	case Value:
		return t
	case string:
		return NewString(t)
	case bool:
		return NewBool(t)
	case float64:
		return NewNumber(t)
	case float32:
		return NewNumber(float64(t))
	case int:
		return NewNumber(float64(t))
	case int8:
		return NewNumber(float64(t))
	case int16:
		return NewNumber(float64(t))
	case int32:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case uint:
		return NewNumber(float64(t))
	case uint8:
		return NewNumber(float64(t))
	case uint16:
		return NewNumber(float64(t))
	case uint32:
		return NewNumber(float64(t))
	case uint64:
		return NewNumber(float64(t))
	case json.Number:
		num, err := t.Float64()
		if err != nil {
			return NewNull()
		}

		return NewNumber(num)
	case []Value:
		return NewArray(t...)
	case map[string]Value:
		return NewObject(t)
	case []any:
		arr := make([]Value, 0, len(t))
		for _, elem := range t {
			arr = append(arr, FromNative(elem))
		}

		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for key, elem := range t {
			obj[key] = FromNative(elem)
		}

		return Value{kind: KindObject, obj: obj}
	}

	data, err := Marshal(v)
	if err != nil {
		return NewNull()
	}

	var out Value
	if err := Unmarshal(data, &out); err != nil {
		return NewNull()
	}

	return out
}

// Kind returns which JSON shape the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero returns true if the value is the [KindInvalid] zero value.
func (v Value) IsZero() bool {
	return v.kind == KindInvalid
}

// IsNull returns true if the value holds JSON null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// String returns the held string and true if the value is a [KindString].
func (v Value) String() (string, bool) {
	return v.str, v.kind == KindString
}

// Number returns the held number and true if the value is a [KindNumber].
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Int64 returns the held number as an int64.
//
// It returns an error if the value is not a [KindNumber] or the number has a
// fractional part. Backend record ids arrive as JSON numbers; this is the
// checked path from a dynamic value to a usable id.
func (v Value) Int64() (int64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%w: value is not a number", ErrDecoding)
	}

	if v.num != math.Trunc(v.num) {
		return 0, fmt.Errorf("%w: number %v is not an integer", ErrDecoding, v.num)
	}

	return int64(v.num), nil
}

// Bool returns the held boolean and true if the value is a [KindBool].
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Array returns the held elements and true if the value is a [KindArray].
// The returned slice is shared; callers must not modify it.
func (v Value) Array() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// Object returns the held members and true if the value is a [KindObject].
// The returned map is shared; callers must not modify it.
func (v Value) Object() (map[string]Value, bool) {
	return v.obj, v.kind == KindObject
}

// MarshalJSON implements [json.Marshaler].
//
// Every constructible [Value] serializes without error. Numeric formatting
// follows [Marshal] and is not byte-stable across values that compare equal,
// only semantically equivalent.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInvalid, KindNull:
		return []byte("null"), nil
	case KindString:
		return Marshal(v.str)
	case KindNumber:
		return Marshal(v.num)
	case KindBool:
		return Marshal(v.b)
	case KindArray:
		if len(v.arr) == 0 {
			return []byte("[]"), nil
		}

		return Marshal(v.arr)
	case KindObject:
		if len(v.obj) == 0 {
			return []byte("{}"), nil
		}

		return Marshal(v.obj)
	}

	return nil, fmt.Errorf("%w: unknown value kind %d", ErrEncoding, v.kind)
}
