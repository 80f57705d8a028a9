package mailsettings_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upmail/upmail/internal/db/controller/mailsettings"
	"github.com/upmail/upmail/internal/db/testdb"
)

func TestLoadSave(t *testing.T) {
	db := testdb.New(t)

	var s mailsettings.Settings
	require.NoError(t, s.Load(db), "missing settings are not an error")
	assert.Equal(t, mailsettings.Settings{}, s)

	want := mailsettings.Settings{
		FromEmail:        "shop@example.com",
		FromName:         "Shop",
		ForceFromEmail:   true,
		DisableAllEmails: true,
	}
	require.NoError(t, want.Save(db))

	var got mailsettings.Settings
	require.NoError(t, got.Load(db))
	assert.Equal(t, want, got)

	assert.Equal(t, "From: Shop <shop@example.com>", got.FromHeader())
	assert.True(t, got.FromOverride().ForceFromEmail)
	assert.Empty(t, (&mailsettings.Settings{FromName: "x"}).FromHeader())
}

func TestValidate(t *testing.T) {
	v := validator.New()

	assert.NoError(t, (&mailsettings.Settings{}).Validate(v))
	assert.NoError(t, (&mailsettings.Settings{FromEmail: "a@example.com"}).Validate(v))
	assert.Error(t, (&mailsettings.Settings{FromEmail: "not-an-email"}).Validate(v))
}
