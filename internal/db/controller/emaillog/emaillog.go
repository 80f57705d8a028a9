// Package emaillog persists and queries the email log.
package emaillog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/models"
)

const (
	// DateLayout is the format of Query.StartDate and Query.EndDate.
	DateLayout = "2006-01-02"
	// DefaultPerPage is the page size used when Query.PerPage is not positive.
	DefaultPerPage = 10
	// MaxPerPage caps Query.PerPage.
	MaxPerPage = 100
)

var (
	// ErrNotFound is returned when a log entry does not exist.
	ErrNotFound = errors.New("email log not found")
	// ErrInvalidStatus is returned for an unknown status.
	ErrInvalidStatus = errors.New("invalid email status")
	// ErrInvalidDate is returned when a date filter is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Query filters the log. Zero values mean no filter.
type Query struct {
	Status    models.EmailStatus `query:"status"`
	StartDate string             `query:"start_date"`
	EndDate   string             `query:"end_date"`
	Search    string             `query:"search"`
	Page      int                `query:"page"`
	PerPage   int                `query:"per_page"`
}

// Page is one page of log entries, newest first.
type Page struct {
	Logs       []models.EmailLog `json:"logs"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

// Create appends an entry. The status must be valid.
func Create(db *gorm.DB, entry *models.EmailLog) error {
	if db == nil {
		return ErrDBNil
	}

	if !entry.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, entry.Status)
	}

	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create email log: %w", err)
	}

	return nil
}

// Get loads one entry.
func Get(db *gorm.DB, id uint64) (*models.EmailLog, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var entry models.EmailLog

	if err := db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get email log %d: %w", id, err)
	}

	return &entry, nil
}

// List returns one page of entries matching q.
func List(db *gorm.DB, q Query) (*Page, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	scoped, err := q.scope(db.Model(&models.EmailLog{}))
	if err != nil {
		return nil, err
	}

	page := &Page{Page: q.Page, PerPage: q.PerPage}
	if page.Page < 1 {
		page.Page = 1
	}

	if page.PerPage < 1 {
		page.PerPage = DefaultPerPage
	}

	page.PerPage = min(page.PerPage, MaxPerPage)

	if err = scoped.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count email logs: %w", err)
	}

	page.TotalPages = int((page.Total + int64(page.PerPage) - 1) / int64(page.PerPage))

	err = scoped.Order("created_at DESC").Order("id DESC").
		Offset((page.Page - 1) * page.PerPage).
		Limit(page.PerPage).
		Find(&page.Logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}

	return page, nil
}

// Delete removes one entry.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.EmailLog{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete email log %d: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAll removes every entry and returns how many were removed.
func DeleteAll(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.EmailLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete email logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// DayRange parses inclusive YYYY-MM-DD bounds into [from, to) in the local zone.
// An empty bound yields a zero time.
func DayRange(start, end string) (from, to time.Time, err error) {
	if start != "" {
		if from, err = time.ParseInLocation(DateLayout, start, time.Local); err != nil {
			return from, to, fmt.Errorf("%w: %s", ErrInvalidDate, start)
		}
	}

	if end != "" {
		if to, err = time.ParseInLocation(DateLayout, end, time.Local); err != nil {
			return from, to, fmt.Errorf("%w: %s", ErrInvalidDate, end)
		}

		to = to.AddDate(0, 0, 1)
	}

	return from, to, nil
}

func (q Query) scope(tx *gorm.DB) (*gorm.DB, error) {
	if q.Status != "" {
		if !q.Status.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, q.Status)
		}

		tx = tx.Where("status = ?", q.Status)
	}

	from, to, err := DayRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	if !from.IsZero() {
		tx = tx.Where("created_at >= ?", from)
	}

	if !to.IsZero() {
		tx = tx.Where("created_at < ?", to)
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		tx = tx.Where(
			"subject LIKE ? ESCAPE '!' OR to_email LIKE ? ESCAPE '!' OR message LIKE ? ESCAPE '!'",
			like, like, like,
		)
	}

	return tx, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_") //nolint:gochecknoglobals

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
