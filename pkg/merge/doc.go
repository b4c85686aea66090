// Package merge holds object-shaped component state that is updated by
// shallow patches.
//
// Form is keyed by arbitrary field names, for forms whose fields are not
// known up front. Object is a typed struct patched by field name.
//
// Both follow the same rule: a patch replaces the top-level fields it
// names and keeps the rest. The previous state is never mutated, so a
// value returned by Get stays valid after later updates.
package merge
