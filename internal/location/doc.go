// Package location owns the current location of the console. It loads the set of locations the
// signed in identity is authorized for, reconciles the persisted selection against that set and
// keeps the selection consistent across create, update and delete calls.
//
// The full location is persisted, not only its id, so the console can render the name of the
// current location before the list was fetched. The persisted copy is always subordinate to the
// fetched list: once the list is loaded it is replaced or dropped by Reconcile.
package location
