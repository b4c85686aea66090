// Package codec converts hook values to and from the string form kept in a
// storage medium.
package codec

import (
	"encoding/json"
)

// Codec encodes and decodes a value of type T to and from its stored form.
// Implementations return an error on malformed input and have no side effects.
type Codec[T any] interface {
	Encode(T) (string, error)
	Decode(string) (T, error)
}

// JSON is the default codec. It stores values as JSON text, the same form
// browsers keep in localStorage.
type JSON[T any] struct{}

// Encode implements Codec.
func (JSON[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode implements Codec.
func (JSON[T]) Decode(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}

// Clone returns a deep copy of v made by encoding and decoding it with c.
// The result shares no memory with v.
func Clone[T any](c Codec[T], v T) (T, error) {
	s, err := c.Encode(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Decode(s)
}
