// Package patch models the fields of a partial update.
//
// A Field is in one of three states: Unchanged (the zero value, what an
// absent JSON key decodes to), Set to a value, or Cleared (an explicit JSON
// null). Services decide what clearing means for each field.
package patch

import (
	"bytes"
	"encoding/json"
)

type state uint8

const (
	unchanged state = iota
	set
	cleared
)

type Field[T any] struct {
	state state
	value T
}

func Set[T any](v T) Field[T] {
	return Field[T]{state: set, value: v}
}

func Clear[T any]() Field[T] {
	return Field[T]{state: cleared}
}

func (f Field[T]) IsUnchanged() bool { return f.state == unchanged }
func (f Field[T]) IsSet() bool       { return f.state == set }
func (f Field[T]) IsCleared() bool   { return f.state == cleared }

// Value returns the set value, or the zero value for any other state.
func (f Field[T]) Value() T {
	return f.value
}

// Apply writes the field into dst: a set value is copied, a cleared field
// writes the zero value and an unchanged field leaves dst alone.
func (f Field[T]) Apply(dst *T) {
	switch f.state {
	case set:
		*dst = f.value
	case cleared:
		var zero T
		*dst = zero
	}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Clear[T]()
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*f = Set(v)

	return nil
}
