package secret

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	box, err := New("correct horse battery staple")
	require.NoError(t, err)

	key := "abcdefghijklmnopqrstuvwxyz0123456789._-"

	first, err := box.Encrypt(key)
	require.NoError(t, err)
	assert.NotContains(t, first, key)

	second, err := box.Encrypt(key)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "nonce must differ per encryption")

	plain, err := box.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, key, plain)
}

func TestEmpty(t *testing.T) {
	out, err := Encrypt("s", "")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Decrypt("s", "")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = New("")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestDecryptFailures(t *testing.T) {
	sealed, err := Encrypt("one", "value")
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": sealed,
		"not base64":   "%%%",
		"too short":    base64.StdEncoding.EncodeToString([]byte("short")),
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decrypt("two", in)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}
