// Package main provides the entry point of the GoBizAdmin back office console.
// It signs the operator in against the remote business platform, restores the
// last selected location and serves location scoped, permission gated pages
// through a Fiber web interface. Client-local state (token, selection and
// preferences) is kept in a gorm database.
package main
