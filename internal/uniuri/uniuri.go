package uniuri

import (
	"crypto/rand"
	"errors"
)

// PasswordLen gives ~119 bits of entropy with Alphanumeric.
const PasswordLen = 20

// Alphanumeric is the default character set.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrCharset is returned for character sets outside 2..256 characters.
var ErrCharset = errors.New("uniuri: charset must hold between 2 and 256 characters")

// Password returns a random alphanumeric string of PasswordLen characters.
func Password() (string, error) {
	return NewLenChars(PasswordLen, Alphanumeric)
}

// NewLenChars returns a random string of length characters drawn from chars.
// Random bytes above the largest multiple of len(chars) are rejected so every
// character is equally likely.
func NewLenChars(length int, chars string) (string, error) {
	n := len(chars)
	if n < 2 || n > 256 {
		return "", ErrCharset
	}

	limit := 256 - 256%n
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err //nolint:wrapcheck
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
