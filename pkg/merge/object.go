package merge

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/vango-dev/hooks/pkg/reactive"
)

// Patch names struct fields to replace. Keys match a field's json tag or,
// case-insensitively, its Go name.
type Patch map[string]any

// Apply returns a copy of prev with the fields named in patch replaced.
// Values are converted the way JSON decoding would accept them; a key that
// names no field is an error. prev is not modified. T must be a struct.
func Apply[T any](prev T, patch Patch) (T, error) {
	next := prev
	if len(patch) == 0 {
		return next, nil
	}

	rv := reflect.ValueOf(&next).Elem()
	if rv.Kind() != reflect.Struct {
		return prev, fmt.Errorf("merge: %T is not a struct", prev)
	}

	// Replace rather than merge into maps, slices and pointers that next
	// still shares with prev.
	for key := range patch {
		if i := fieldIndex(rv.Type(), key); i >= 0 {
			f := rv.Field(i)
			f.Set(reflect.Zero(f.Type()))
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &next,
		TagName:     "json",
		ZeroFields:  true,
		ErrorUnused: true,
	})
	if err != nil {
		return prev, err
	}
	if err := decoder.Decode(map[string]any(patch)); err != nil {
		return prev, fmt.Errorf("merge: %w", err)
	}
	return next, nil
}

// fieldIndex finds the exported field key refers to, or -1.
func fieldIndex(t reflect.Type, key string) int {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if strings.EqualFold(name, key) {
			return i
		}
	}
	return -1
}

// Object is typed struct state updated by patches.
//
//	type Profile struct {
//	    Name string `json:"name"`
//	    Age  int    `json:"age"`
//	}
//
//	profile := merge.NewObject(Profile{Name: "Ada"})
//	err := profile.Update(merge.Patch{"age": 36})
type Object[T any] struct {
	initial T
	value   *reactive.Signal[T]
}

// NewObject creates an Object holding initial.
func NewObject[T any](initial T) *Object[T] {
	return &Object[T]{
		initial: initial,
		value:   reactive.NewSignal(initial),
	}
}

// Get returns the current value. Inside an effect the read is tracked.
func (o *Object[T]) Get() T {
	return o.value.Get()
}

// Set replaces the whole value.
func (o *Object[T]) Set(v T) {
	o.value.Set(v)
}

// Update applies patch. On error the value is unchanged.
func (o *Object[T]) Update(patch Patch) error {
	next, err := Apply(o.value.Peek(), patch)
	if err != nil {
		return err
	}
	o.value.Set(next)
	return nil
}

// UpdateFunc applies the patch fn computes from the current value.
func (o *Object[T]) UpdateFunc(fn func(prev T) Patch) error {
	prev := o.value.Peek()
	next, err := Apply(prev, fn(prev))
	if err != nil {
		return err
	}
	o.value.Set(next)
	return nil
}

// Reset restores the initial value.
func (o *Object[T]) Reset() {
	o.value.Set(o.initial)
}
