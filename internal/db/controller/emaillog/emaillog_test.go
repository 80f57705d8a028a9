package emaillog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/controller/emaillog"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/db/testdb"
)

func day(t *testing.T, s string, hour int) time.Time {
	t.Helper()

	d, err := time.ParseInLocation(emaillog.DateLayout, s, time.Local)
	require.NoError(t, err)

	return d.Add(time.Duration(hour) * time.Hour)
}

func seed(t *testing.T, db *gorm.DB, entries ...models.EmailLog) {
	t.Helper()

	for i := range entries {
		require.NoError(t, emaillog.Create(db, &entries[i]))
	}
}

func TestCreateGetDelete(t *testing.T) {
	db := testdb.New(t)

	entry := models.EmailLog{
		ToEmail:     "a@example.com",
		Subject:     "Hello",
		Message:     "Body",
		Status:      models.EmailStatusSent,
		APIResponse: `{"success": true}`,
	}
	require.NoError(t, emaillog.Create(db, &entry))
	require.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	got, err := emaillog.Get(db, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.ToEmail)
	assert.Equal(t, models.EmailStatusSent, got.Status)

	require.ErrorIs(t, emaillog.Create(db, &models.EmailLog{Status: "bounced"}), emaillog.ErrInvalidStatus)

	require.NoError(t, emaillog.Delete(db, entry.ID))
	require.ErrorIs(t, emaillog.Delete(db, entry.ID), emaillog.ErrNotFound)

	_, err = emaillog.Get(db, entry.ID)
	require.ErrorIs(t, err, emaillog.ErrNotFound)

	_, err = emaillog.Get(nil, 1)
	require.ErrorIs(t, err, emaillog.ErrDBNil)
}

func TestDeleteAll(t *testing.T) {
	db := testdb.New(t)

	seed(t, db,
		models.EmailLog{ToEmail: "a@example.com", Subject: "1", Message: "m", Status: models.EmailStatusSent},
		models.EmailLog{ToEmail: "b@example.com", Subject: "2", Message: "m", Status: models.EmailStatusFailed},
	)

	n, err := emaillog.DeleteAll(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := emaillog.List(db, emaillog.Query{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Logs)
}

func TestList(t *testing.T) {
	db := testdb.New(t)

	seed(t, db,
		models.EmailLog{ToEmail: "alice@example.com", Subject: "Welcome", Message: "hi", Status: models.EmailStatusSent, CreatedAt: day(t, "2024-03-01", 9)},
		models.EmailLog{ToEmail: "bob@example.com", Subject: "Invoice 100%", Message: "pay", Status: models.EmailStatusFailed, CreatedAt: day(t, "2024-03-02", 23)},
		models.EmailLog{ToEmail: "carol@example.com", Subject: "Reset", Message: "token_abc", Status: models.EmailStatusSkipped, CreatedAt: day(t, "2024-03-03", 0)},
		models.EmailLog{ToEmail: "dave@example.com", Subject: "Welcome back", Message: "hi again", Status: models.EmailStatusSent, CreatedAt: day(t, "2024-03-04", 12)},
	)

	tests := []struct {
		name     string
		query    emaillog.Query
		wantSubj []string
		wantErr  error
	}{
		{name: "all newest first", query: emaillog.Query{}, wantSubj: []string{"Welcome back", "Reset", "Invoice 100%", "Welcome"}},
		{name: "by status", query: emaillog.Query{Status: models.EmailStatusSent}, wantSubj: []string{"Welcome back", "Welcome"}},
		{name: "end date covers whole day", query: emaillog.Query{StartDate: "2024-03-02", EndDate: "2024-03-03"}, wantSubj: []string{"Reset", "Invoice 100%"}},
		{name: "search subject", query: emaillog.Query{Search: "welcome"}, wantSubj: []string{"Welcome back", "Welcome"}},
		{name: "search recipient", query: emaillog.Query{Search: "carol@"}, wantSubj: []string{"Reset"}},
		{name: "search message", query: emaillog.Query{Search: "pay"}, wantSubj: []string{"Invoice 100%"}},
		{name: "percent is literal", query: emaillog.Query{Search: "100%"}, wantSubj: []string{"Invoice 100%"}},
		{name: "underscore is literal", query: emaillog.Query{Search: "e_c"}, wantSubj: nil},
		{name: "paging", query: emaillog.Query{Page: 2, PerPage: 3}, wantSubj: []string{"Welcome"}},
		{name: "bad status", query: emaillog.Query{Status: "x"}, wantErr: emaillog.ErrInvalidStatus},
		{name: "bad date", query: emaillog.Query{StartDate: "03/01/2024"}, wantErr: emaillog.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := emaillog.List(db, tt.query)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)

			var subjects []string
			for _, l := range page.Logs {
				subjects = append(subjects, l.Subject)
			}

			assert.Equal(t, tt.wantSubj, subjects)
		})
	}

	page, err := emaillog.List(db, emaillog.Query{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	page, err = emaillog.List(db, emaillog.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, emaillog.DefaultPerPage, page.PerPage)
}
