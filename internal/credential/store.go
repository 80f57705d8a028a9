package credential

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/controller/setting"
	"github.com/upmail/upmail/internal/secret"
)

// Setting names.
const (
	SettingAPIKey       = "api_key"
	SettingAPIKeyStatus = "api_key_status"
)

// StaleAfter is the age after which the settings page flags a validation status as stale.
const StaleAfter = time.Hour

// Status is the cached outcome of the last remote validation.
type Status struct {
	IsValid   bool      `json:"isValid"`
	LastCheck time.Time `json:"lastCheck"`
	Error     string    `json:"error,omitempty"`
}

// NeedsValidation reports whether the status is older than StaleAfter.
func NeedsValidation(s Status, now time.Time) bool {
	return s.LastCheck.Before(now.Add(-StaleAfter))
}

// LoadStatus returns the stored status, or the zero Status when none is stored.
func LoadStatus(db *gorm.DB) (Status, error) {
	var s Status

	err := setting.Load(db, SettingAPIKeyStatus, &s)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return Status{}, nil
	}

	return s, err
}

// StoreStatus saves the status.
func StoreStatus(db *gorm.DB, s Status) error {
	return setting.Store(db, SettingAPIKeyStatus, s)
}

// Store keeps the API key encrypted in the settings table.
type Store struct {
	box *secret.Box
}

// NewStore derives the encryption key from encryptionSecret.
func NewStore(encryptionSecret string) (*Store, error) {
	box, err := secret.New(encryptionSecret)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &Store{box: box}, nil
}

// APIKey returns the decrypted key, or "" when none is stored.
// A value that no longer decrypts is treated as absent.
func (s *Store) APIKey(db *gorm.DB) (string, error) {
	row, err := setting.Get(db, SettingAPIKey)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return "", nil
	}

	if err != nil {
		return "", err //nolint:wrapcheck
	}

	key, err := s.box.Decrypt(string(row.Value))
	if err != nil {
		log.Warn().Err(err).Msg("stored API key can not be decrypted, treating it as not configured")
		return "", nil
	}

	return key, nil
}

// HasAPIKey reports whether a usable key is stored.
func (s *Store) HasAPIKey(db *gorm.DB) bool {
	key, err := s.APIKey(db)

	return err == nil && key != ""
}

// SetAPIKey encrypts and stores key.
func (s *Store) SetAPIKey(db *gorm.DB, key string) error {
	sealed, err := s.box.Encrypt(key)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = setting.Set(db, SettingAPIKey, []byte(sealed))

	return err //nolint:wrapcheck
}

// Reset removes the key and its validation status.
func (s *Store) Reset(db *gorm.DB) error {
	if err := setting.Delete(db, SettingAPIKey); err != nil {
		return err //nolint:wrapcheck
	}

	return setting.Delete(db, SettingAPIKeyStatus) //nolint:wrapcheck
}
