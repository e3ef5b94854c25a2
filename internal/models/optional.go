package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch field with three states: absent, explicit null, or a
// value. Absent fields are dropped from the body via the omitzero tag.
type Optional[T any] struct {
	Present bool
	Valid   bool
	Value   T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Valid: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

func (o Optional[T]) IsZero() bool { return !o.Present }

// IsNull reports an explicit request to clear the field.
func (o Optional[T]) IsNull() bool { return o.Present && !o.Valid }

// Ptr returns the value as a pointer, nil for absent and null.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Valid, o.Value = false, zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}
