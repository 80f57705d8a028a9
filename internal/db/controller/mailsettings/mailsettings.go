// Package mailsettings stores the sender and dispatch settings.
package mailsettings

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/controller/setting"
	"github.com/upmail/upmail/internal/mail"
)

// SettingKey names the settings row.
const SettingKey = "mail_settings"

// Settings are edited on the settings page.
type Settings struct {
	FromEmail        string `form:"from_email"         json:"fromEmail"        validate:"omitempty,email,max=255"`
	FromName         string `form:"from_name"          json:"fromName"         validate:"max=255"`
	ForceFromEmail   bool   `form:"force_from_email"   json:"forceFromEmail"`
	ForceFromName    bool   `form:"force_from_name"    json:"forceFromName"`
	DisableAllEmails bool   `form:"disable_all_emails" json:"disableAllEmails"`
}

// Load reads the settings. Missing settings leave s unchanged.
func (s *Settings) Load(db *gorm.DB) error {
	err := setting.Load(db, SettingKey, s)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil
	}

	return err
}

// Save writes the settings.
func (s *Settings) Save(db *gorm.DB) error {
	return setting.Store(db, SettingKey, s)
}

// Validate checks the form values.
func (s *Settings) Validate(v *validator.Validate) error {
	return v.Struct(s) //nolint:wrapcheck
}

// FromOverride returns the sender rules applied to outgoing headers.
func (s *Settings) FromOverride() mail.FromOverride {
	return mail.FromOverride{
		FromEmail:      s.FromEmail,
		FromName:       s.FromName,
		ForceFromEmail: s.ForceFromEmail,
		ForceFromName:  s.ForceFromName,
	}
}

// FromHeader returns the configured From line, or "" without a from email.
func (s *Settings) FromHeader() string {
	if s.FromEmail == "" {
		return ""
	}

	return mail.FormatFrom(s.FromName, s.FromEmail)
}
