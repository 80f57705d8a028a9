// Package credential manages the API key: format checks, encrypted storage,
// remote validation with its cached status and the validation rate limit.
package credential

import (
	"errors"
	"regexp"
)

// MinKeyLength is the shortest accepted API key.
const MinKeyLength = 32

var (
	// ErrKeyRequired is returned for an empty key.
	ErrKeyRequired = errors.New("API key is required")
	// ErrKeyFormat is returned for keys with characters outside [a-zA-Z0-9._-].
	ErrKeyFormat = errors.New(
		"invalid API key format, the key should only contain letters, numbers, dots, underscores and hyphens")
	// ErrKeyTooShort is returned for keys below MinKeyLength.
	ErrKeyTooShort = errors.New("API key is too short, it should be at least 32 characters long")
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateFormat checks a key before it is sent anywhere.
func ValidateFormat(key string) error {
	switch {
	case key == "":
		return ErrKeyRequired
	case !keyPattern.MatchString(key):
		return ErrKeyFormat
	case len(key) < MinKeyLength:
		return ErrKeyTooShort
	}

	return nil
}
