package merge

import (
	"github.com/vango-dev/hooks/pkg/reactive"
)

// Form is free-form field state for a form.
//
//	form := merge.NewForm(map[string]any{"email": "", "remember": false})
//	form.SetField("email", "a@example.com")
//	form.UpdateFunc(func(prev map[string]any) map[string]any {
//	    return map[string]any{"remember": !prev["remember"].(bool)}
//	})
type Form struct {
	initial map[string]any
	values  *reactive.Signal[map[string]any]
	dirty   *reactive.Signal[map[string]bool]
}

// NewForm creates a Form holding a copy of initial.
func NewForm(initial map[string]any) *Form {
	return &Form{
		initial: Shallow(initial),
		values:  reactive.NewSignal(Shallow(initial)),
		dirty:   reactive.NewSignal(map[string]bool{}),
	}
}

// Get returns a copy of the current fields. Inside an effect the read is
// tracked.
func (f *Form) Get() map[string]any {
	return Shallow(f.values.Get())
}

// Field returns a single field and whether it is set.
func (f *Form) Field(name string) (any, bool) {
	v, ok := f.values.Get()[name]
	return v, ok
}

// SetField sets one field, adding it if it did not exist.
func (f *Form) SetField(name string, value any) {
	f.Update(map[string]any{name: value})
}

// Update merges patch into the fields.
func (f *Form) Update(patch map[string]any) {
	reactive.Batch(func() {
		f.values.Update(func(prev map[string]any) map[string]any {
			return Shallow(prev, patch)
		})
		f.markDirty(patch)
	})
}

// UpdateFunc merges the patch fn computes from the current fields. fn gets
// a copy and may keep it.
func (f *Form) UpdateFunc(fn func(prev map[string]any) map[string]any) {
	f.Update(fn(Shallow(f.values.Peek())))
}

func (f *Form) markDirty(patch map[string]any) {
	if len(patch) == 0 {
		return
	}
	f.dirty.Update(func(m map[string]bool) map[string]bool {
		next := make(map[string]bool, len(m)+len(patch))
		for k, v := range m {
			next[k] = v
		}
		for k := range patch {
			next[k] = true
		}
		return next
	})
}

// IsDirty reports whether any field was updated since creation or Reset.
func (f *Form) IsDirty() bool {
	return len(f.dirty.Get()) > 0
}

// FieldDirty reports whether the named field was updated.
func (f *Form) FieldDirty(name string) bool {
	return f.dirty.Get()[name]
}

// Reset restores the initial fields.
func (f *Form) Reset() {
	reactive.Batch(func() {
		f.values.Set(Shallow(f.initial))
		f.dirty.Set(map[string]bool{})
	})
}
