package odoorpc

import (
	"encoding/json"
	"fmt"
)

// Reference is an Odoo relational (many2one) field value: a record id plus its
// display name, either of which may be absent.
//
// The backend has three encodings for these fields. A populated reference
// arrives as the two-element array [id, "name"], an unset one arrives as the
// boolean false or as null, and some endpoints send an empty array. Reference
// accepts all of them, and each position degrades independently: an id that is
// not an integer or a name that is not a string simply reads back as absent
// rather than failing the record it belongs to.
//
// The zero value is the empty reference and marshals as null.
//
// Example:
//
//	type partner struct {
//	    ID      int64             `json:"id"`
//	    Company odoorpc.Reference `json:"parent_id"`
//	}
type Reference struct {
	name    string
	id      int64
	hasID   bool
	hasName bool
}

// NewReference returns a [Reference] with both the id and display name set.
func NewReference(id int64, name string) Reference {
	return Reference{id: id, hasID: true, name: name, hasName: true}
}

// NewReferenceID returns a [Reference] with only the id set.
func NewReferenceID(id int64) Reference {
	return Reference{id: id, hasID: true}
}

// ID returns the record id and true if it is present.
func (r *Reference) ID() (int64, bool) {
	return r.id, r.hasID
}

// Name returns the display name and true if it is present.
func (r *Reference) Name() (string, bool) {
	return r.name, r.hasName
}

// IsZero returns true if neither the id nor the name is present.
func (r *Reference) IsZero() bool {
	return !r.hasID && !r.hasName
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *Reference) UnmarshalJSON(data []byte) error {
	*r = Reference{}

	switch HintType(data) {
	case TypeBool, TypeNull:
		// The backend's spelling of an unset reference.
		return nil
	case TypeArray:
		var parts []json.RawMessage
		if err := Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		if len(parts) == 0 || HintType(parts[0]) == TypeNull {
			return nil
		}

		if err := Unmarshal(parts[0], &r.id); err == nil {
			r.hasID = true
		}

		if len(parts) > 1 {
			if err := Unmarshal(parts[1], &r.name); err == nil {
				r.hasName = true
			}
		}

		return nil
	}

	return fmt.Errorf("%w: reference must be an array, a boolean, or null", ErrDecoding)
}

// MarshalJSON implements [json.Marshaler].
//
// A reference without an id marshals as null, even when a name is present.
// Otherwise it marshals as [id, name], with null standing in for an absent
// name.
func (r Reference) MarshalJSON() ([]byte, error) {
	if !r.hasID {
		return []byte("null"), nil
	}

	parts := [2]any{r.id, nil}
	if r.hasName {
		parts[1] = r.name
	}

	return Marshal(parts)
}
