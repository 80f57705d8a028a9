package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// User is a local admin account.
type User struct {
	ID        uint64 `gorm:"primaryKey"`
	Active    bool
	Username  string `gorm:"unique;size:100;not null"`
	Email     string `gorm:"size:255;not null"`
	Password  string `gorm:"size:255"` // argon2id hash
	RoleID    uint   `gorm:"column:role_id;not null"`
	Role      Role   `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HashPassword hashes password with the default argon2id parameters.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return hash, nil
}

// VerifyPassword compares password with the stored hash.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Err(err).Str("user", u.Username).Msg("failed to verify password")
		return false
	}

	return match
}
