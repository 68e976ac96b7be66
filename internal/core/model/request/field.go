package request

import (
	"bytes"
	"encoding/json"
)

// Field tells apart a key that was left out of a JSON body, a key sent as
// null, and a key sent with a value. Partial updates rely on it.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Present builds a Field carrying a value.
func Present[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

// Null builds a Field that was explicitly sent as null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}

	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}

	return json.Marshal(f.Value)
}

// Get returns the value when one was sent.
func (f Field[T]) Get() (T, bool) {
	if f.Set && !f.Null {
		return f.Value, true
	}

	var zero T
	return zero, false
}

// Ptr returns nil for absent or null fields.
func (f Field[T]) Ptr() *T {
	if v, ok := f.Get(); ok {
		return &v
	}

	return nil
}
