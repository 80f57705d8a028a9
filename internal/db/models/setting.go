// Package models contains the gorm models of upmail.
package models

// Setting is a named JSON blob, the key/value store behind the mail settings,
// the encrypted API key and its validation status.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:191;not null"`
	Value []byte
}

// All returns every model for auto migration.
func All() []any {
	return []any{
		&Setting{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&User{},
		&EmailLog{},
	}
}
