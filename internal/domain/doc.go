// Package domain holds the entities shared by the console core and its collaborators:
// the authenticated identity, business locations, employees, catalog items and the
// user interface preferences kept in local storage.
package domain
