// Package synced keeps a piece of component state mirrored to a key in a
// storage medium, so it survives reloads and restarts.
//
// A Value loads once when it is created. From then on the in-memory value
// is authoritative: every Set replaces it and is written through to the
// medium synchronously. Reads never touch the medium.
//
//	type Prefs struct {
//	    FontSize int    `json:"fontSize"`
//	    Language string `json:"language"`
//	}
//
//	defaults := Prefs{FontSize: 14, Language: "en"}
//	prefs, err := synced.New(ctx, medium, "prefs", &defaults)
//	if err != nil {
//	    return err
//	}
//
//	p := prefs.Get()
//	p.FontSize++
//	err = prefs.Set(ctx, p)
//
// # Absence
//
// A Value can hold "nothing": the key was never written and no default was
// given, or Clear was called. Lookup reports this with ok == false and Get
// returns the zero value. Clear removes the key from the medium, so a Value
// created afterwards starts from its default again.
//
// # Lifecycle
//
// A Value created while a reactive.Owner is current is bound to it. Once
// the owner is disposed, Set, Clear and Update return an error wrapping
// ErrDisposed and nothing more reaches the medium.
package synced
