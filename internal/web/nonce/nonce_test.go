package nonce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreateVerify(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	issuer := New("cookie-key").WithClock(func() time.Time { return now })

	token := issuer.Create("sess-1", "resend-email")
	assert.Len(t, token, tokenLength)
	assert.Equal(t, token, issuer.Create("sess-1", "resend-email"))

	assert.True(t, issuer.Verify(token, "sess-1", "resend-email"))
	assert.False(t, issuer.Verify(token, "sess-1", "delete-log"), "bound to the action")
	assert.False(t, issuer.Verify(token, "sess-2", "resend-email"), "bound to the session")
	assert.False(t, issuer.Verify("", "sess-1", "resend-email"))
	assert.False(t, issuer.Verify(token, "", "resend-email"))

	other := New("other-key").WithClock(func() time.Time { return now })
	assert.False(t, other.Verify(token, "sess-1", "resend-email"), "bound to the key")
}

func TestGracePeriod(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	now := start
	issuer := New("cookie-key").WithClock(func() time.Time { return now })

	token := issuer.Create("sess", "send-test")

	now = start.Add(Tick)
	assert.True(t, issuer.Verify(token, "sess", "send-test"), "valid during the next tick")

	now = start.Add(2 * Tick)
	assert.False(t, issuer.Verify(token, "sess", "send-test"), "expired after the grace tick")
}

func TestCreateAll(t *testing.T) {
	issuer := New("k")

	tokens := issuer.CreateAll("sess", "a", "b")
	assert.Len(t, tokens, 2)
	assert.True(t, issuer.Verify(tokens["a"], "sess", "a"))
	assert.True(t, issuer.Verify(tokens["b"], "sess", "b"))
}
