// Package setting stores named JSON blobs in the settings table.
package setting

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/models"
)

const nameQueryPattern = "name = ?"

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned for an empty setting name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func check(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return nil
}

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var s models.Setting

	if err := db.Where(nameQueryPattern, name).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, fmt.Errorf("failed to get setting %s: %w", name, err)
	}

	return &s, nil
}

// Set creates or replaces the value of a setting.
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var s models.Setting

	err := db.Where(nameQueryPattern, name).First(&s).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		s = models.Setting{Name: name}
	case err != nil:
		return nil, fmt.Errorf("failed to get setting %s: %w", name, err)
	}

	s.Value = value

	if err = db.Save(&s).Error; err != nil {
		return nil, fmt.Errorf("failed to save setting %s: %w", name, err)
	}

	return &s, nil
}

// Delete removes a setting. Deleting a missing setting is not an error.
func Delete(db *gorm.DB, name string) error {
	if err := check(db, name); err != nil {
		return err
	}

	if err := db.Where(nameQueryPattern, name).Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", name, err)
	}

	return nil
}

// Load decodes the JSON value of a setting into v.
// ErrSettingNotFound is returned untouched so callers can fall back to defaults.
func Load(db *gorm.DB, name string, v any) error {
	s, err := Get(db, name)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(s.Value, v); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", name, err)
	}

	return nil
}

// Store encodes v as JSON and saves it under name.
func Store(db *gorm.DB, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", name, err)
	}

	_, err = Set(db, name, data)

	return err
}
