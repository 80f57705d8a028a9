// Package nonce issues per-operation anti-forgery tokens bound to a login session.
//
// A token is valid for the tick it was created in and the tick after it, so
// it lives between Tick and two Ticks.
package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	// Tick is the token rotation interval.
	Tick = 12 * time.Hour

	tokenLength = 20
)

// Issuer creates and verifies tokens with one key.
type Issuer struct {
	key []byte
	now func() time.Time
}

// New returns an Issuer keyed by key.
func New(key string) *Issuer {
	return &Issuer{key: []byte(key), now: time.Now}
}

// WithClock replaces the clock, for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) tick() int64 {
	return i.now().Unix() / int64(Tick/time.Second)
}

func (i *Issuer) sign(tick int64, sessionID, action string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(strconv.FormatInt(tick, 10) + "|" + action + "|" + sessionID))

	return hex.EncodeToString(mac.Sum(nil))[:tokenLength]
}

// Create returns the token for action in the session.
func (i *Issuer) Create(sessionID, action string) string {
	return i.sign(i.tick(), sessionID, action)
}

// Verify reports whether token was created for action in the session
// during the current or the previous tick.
func (i *Issuer) Verify(token, sessionID, action string) bool {
	if token == "" || sessionID == "" {
		return false
	}

	tick := i.tick()
	for _, t := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(token), []byte(i.sign(t, sessionID, action))) {
			return true
		}
	}

	return false
}

// CreateAll returns one token per action.
func (i *Issuer) CreateAll(sessionID string, actions ...string) map[string]string {
	out := make(map[string]string, len(actions))
	for _, action := range actions {
		out[action] = i.Create(sessionID, action)
	}

	return out
}
