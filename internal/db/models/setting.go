// Package models contains database model definitions.
package models

import "time"

// Setting is a client-local key/value entry. The console keeps its credential token, the
// current location snapshot and the UI preferences in this table.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

// All returns every model that has to be migrated.
func All() []any {
	return []any{
		&Setting{},
	}
}
