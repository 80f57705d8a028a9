package emaillog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/models"
)

// Error categories of failed entries.
const (
	ErrorCategoryConfig = "config"
	ErrorCategoryAPI    = "api"
	ErrorCategoryOther  = "other"
)

// Counts holds sent and failed totals.
type Counts struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// OverviewStats compares the current month with all time.
type OverviewStats struct {
	CurrentMonth Counts `json:"current_month"`
	Total        Counts `json:"total"`
}

// DailyPoint is one day of the activity chart.
type DailyPoint struct {
	Date             string `json:"date"`
	Sent             int64  `json:"sent_count"`
	Failed           int64  `json:"failed_count"`
	Total            int64  `json:"total_count"`
	CumulativeSent   int64  `json:"cumulative_sent"`
	CumulativeFailed int64  `json:"cumulative_failed"`
	CumulativeTotal  int64  `json:"cumulative_total"`
}

// HourlyStats counts sent entries by weekday (index 0 is Sunday) and hour.
type HourlyStats [7][24]int64

// FailedStats summarizes failures in a date range.
type FailedStats struct {
	Count            int64   `json:"count"`
	Total            int64   `json:"total"`
	Percentage       float64 `json:"percentage"`
	PercentageChange float64 `json:"percentage_change"`
	MostCommonError  string  `json:"most_common_error"`
}

type statusRow struct {
	Status models.EmailStatus
	Count  int64
}

func countByStatus(tx *gorm.DB) (Counts, error) {
	var (
		rows []statusRow
		c    Counts
	)

	err := tx.Model(&models.EmailLog{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return c, fmt.Errorf("failed to count email logs: %w", err)
	}

	for _, r := range rows {
		switch r.Status {
		case models.EmailStatusSent:
			c.Sent = r.Count
		case models.EmailStatusFailed:
			c.Failed = r.Count
		}
	}

	return c, nil
}

// Overview counts sent and failed entries for the month of now and all time.
func Overview(db *gorm.DB, now time.Time) (*OverviewStats, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	month, err := countByStatus(db.Where("created_at >= ? AND created_at < ?", monthStart, monthEnd))
	if err != nil {
		return nil, err
	}

	total, err := countByStatus(db)
	if err != nil {
		return nil, err
	}

	return &OverviewStats{CurrentMonth: month, Total: total}, nil
}

// Daily returns one point per day with entries since the given time, oldest first,
// with running totals.
func Daily(db *gorm.DB, since time.Time) ([]DailyPoint, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []models.EmailLog

	err := db.Select("status", "created_at").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}

	var (
		points  []DailyPoint
		running DailyPoint
	)

	for _, r := range rows {
		day := r.CreatedAt.In(time.Local).Format(DateLayout)

		if len(points) == 0 || points[len(points)-1].Date != day {
			points = append(points, DailyPoint{Date: day})
		}

		p := &points[len(points)-1]
		p.Total++
		running.CumulativeTotal++

		switch r.Status {
		case models.EmailStatusSent:
			p.Sent++
			running.CumulativeSent++
		case models.EmailStatusFailed:
			p.Failed++
			running.CumulativeFailed++
		}

		p.CumulativeSent = running.CumulativeSent
		p.CumulativeFailed = running.CumulativeFailed
		p.CumulativeTotal = running.CumulativeTotal
	}

	return points, nil
}

// Hourly buckets the sent entries matching q by weekday and hour.
// A status set on q is ignored.
func Hourly(db *gorm.DB, q Query) (*HourlyStats, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q.Status = models.EmailStatusSent

	scoped, err := q.scope(db.Model(&models.EmailLog{}))
	if err != nil {
		return nil, err
	}

	var times []time.Time

	if err = scoped.Pluck("created_at", &times).Error; err != nil {
		return nil, fmt.Errorf("failed to load hourly stats: %w", err)
	}

	var stats HourlyStats

	for _, t := range times {
		t = t.In(time.Local)
		stats[t.Weekday()][t.Hour()]++
	}

	return &stats, nil
}

// ErrorCategory classifies a stored api response.
func ErrorCategory(apiResponse string) string {
	switch {
	case strings.Contains(apiResponse, "Configuration Error"):
		return ErrorCategoryConfig
	case strings.Contains(apiResponse, "API Error"):
		return ErrorCategoryAPI
	default:
		return ErrorCategoryOther
	}
}

// Failed summarizes failures between the inclusive days start and end (YYYY-MM-DD)
// and compares them with the preceding period of the same length.
func Failed(db *gorm.DB, start, end string) (*FailedStats, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	from, to, err := DayRange(start, end)
	if err != nil {
		return nil, err
	}

	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: both start and end are required", ErrInvalidDate)
	}

	inRange := func() *gorm.DB {
		return db.Model(&models.EmailLog{}).Where("created_at >= ? AND created_at < ?", from, to)
	}

	stats := &FailedStats{MostCommonError: ErrorCategoryOther}

	var responses []string

	err = inRange().Where("status = ?", models.EmailStatusFailed).Pluck("api_response", &responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load failed stats: %w", err)
	}

	stats.Count = int64(len(responses))

	if err = inRange().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count email logs: %w", err)
	}

	categories := map[string]int64{}
	for _, r := range responses {
		categories[ErrorCategory(r)]++
	}

	var best int64

	for _, c := range []string{ErrorCategoryConfig, ErrorCategoryAPI, ErrorCategoryOther} {
		if categories[c] > best {
			best = categories[c]
			stats.MostCommonError = c
		}
	}

	stats.Percentage = round1(float64(stats.Count) / float64(max(stats.Total, 1)) * 100) //nolint:mnd

	// previous period: same length, ending the day before start
	length := to.Sub(from) - 24*time.Hour
	prevTo := from
	prevFrom := from.Add(-length)

	var prev int64

	err = db.Model(&models.EmailLog{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.EmailStatusFailed, prevFrom, prevTo).
		Count(&prev).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count previous failures: %w", err)
	}

	if prev > 0 {
		stats.PercentageChange = round1(float64(stats.Count-prev) / float64(prev) * 100) //nolint:mnd
	}

	return stats, nil
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10 //nolint:mnd
}
