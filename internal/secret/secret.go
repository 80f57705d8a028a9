// Package secret encrypts credentials stored in the database.
//
// Values are sealed with AES-256-GCM under a key derived by HKDF-SHA256 from the
// configured encryption secret and stored as base64(nonce || ciphertext).
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize = 32
	info    = "upmail credential encryption v1"
)

var (
	// ErrEmptySecret is returned when no encryption secret is configured.
	ErrEmptySecret = errors.New("encryption secret is empty")
	// ErrMalformed is returned for ciphertext that can not be decoded or opened.
	ErrMalformed = errors.New("malformed ciphertext")
)

// Box seals and opens values with one derived key.
type Box struct {
	aead cipher.AEAD
}

// New derives the key from secret.
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to derive key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create gcm")
	}

	return &Box{aead: aead}, nil
}

// Encrypt seals plaintext. Empty input yields empty output.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", pkgerrors.Wrap(err, "failed to read nonce")
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Empty input yields empty output.
func (b *Box) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformed
	}

	n := b.aead.NonceSize()
	if len(raw) < n+b.aead.Overhead() {
		return "", ErrMalformed
	}

	plain, err := b.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrMalformed
	}

	return string(plain), nil
}

// Encrypt is a one-shot helper around New and Box.Encrypt.
func Encrypt(secret, plaintext string) (string, error) {
	b, err := New(secret)
	if err != nil {
		return "", err
	}

	return b.Encrypt(plaintext)
}

// Decrypt is a one-shot helper around New and Box.Decrypt.
func Decrypt(secret, ciphertext string) (string, error) {
	b, err := New(secret)
	if err != nil {
		return "", err
	}

	return b.Decrypt(ciphertext)
}
