package setting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/controller/setting"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/db/testdb"
)

func TestGet(t *testing.T) {
	db := testdb.New(t)
	require.NoError(t, db.Create(&models.Setting{Name: "site_name", Value: []byte("My Site")}).Error)

	testCases := []struct {
		name          string
		db            *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", settingName: "test", expectedError: setting.ErrDBNil},
		{name: "empty name", db: db, expectedError: setting.ErrSettingNameEmpty},
		{name: "not found", db: db, settingName: "nonexistent", expectedError: setting.ErrSettingNotFound},
		{name: "found", db: db, settingName: "site_name", expectedValue: []byte("My Site")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := setting.Get(tc.db, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, s)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.settingName, s.Name)
			assert.Equal(t, tc.expectedValue, s.Value)
		})
	}
}

func TestSetUpserts(t *testing.T) {
	db := testdb.New(t)

	created, err := setting.Set(db, "api_key", []byte("one"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := setting.Set(db, "api_key", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	var count int64
	db.Model(&models.Setting{}).Where("name = ?", "api_key").Count(&count)
	assert.Equal(t, int64(1), count)

	s, err := setting.Get(db, "api_key")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), s.Value)

	_, err = setting.Set(nil, "api_key", nil)
	require.ErrorIs(t, err, setting.ErrDBNil)

	_, err = setting.Set(db, "", nil)
	require.ErrorIs(t, err, setting.ErrSettingNameEmpty)
}

func TestDelete(t *testing.T) {
	db := testdb.New(t)

	_, err := setting.Set(db, "api_key", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, setting.Delete(db, "api_key"))
	require.NoError(t, setting.Delete(db, "api_key"), "deleting twice is fine")

	_, err = setting.Get(db, "api_key")
	require.ErrorIs(t, err, setting.ErrSettingNotFound)

	require.ErrorIs(t, setting.Delete(nil, "api_key"), setting.ErrDBNil)
}

func TestLoadStore(t *testing.T) {
	db := testdb.New(t)

	type status struct {
		IsValid bool `json:"isValid"`
	}

	var got status
	require.ErrorIs(t, setting.Load(db, "api_key_status", &got), setting.ErrSettingNotFound)

	require.NoError(t, setting.Store(db, "api_key_status", status{IsValid: true}))
	require.NoError(t, setting.Load(db, "api_key_status", &got))
	assert.True(t, got.IsValid)

	_, err := setting.Set(db, "broken", []byte("{"))
	require.NoError(t, err)
	require.Error(t, setting.Load(db, "broken", &got))
}
