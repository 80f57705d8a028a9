package models

import "time"

// EmailStatus is the outcome recorded for one dispatch attempt.
type EmailStatus string

const (
	// EmailStatusPending is the column default; the pipeline never writes it.
	EmailStatusPending EmailStatus = "pending"
	// EmailStatusSent means the API accepted the message.
	EmailStatusSent EmailStatus = "sent"
	// EmailStatusFailed covers configuration, validation, connection and API errors.
	EmailStatusFailed EmailStatus = "failed"
	// EmailStatusSkipped means sending was disabled in the settings.
	EmailStatusSkipped EmailStatus = "skipped"
)

// EmailStatuses lists the statuses in display order.
var EmailStatuses = []EmailStatus{ //nolint:gochecknoglobals
	EmailStatusPending, EmailStatusSent, EmailStatusFailed, EmailStatusSkipped,
}

// IsValid reports whether s is a known status.
func (s EmailStatus) IsValid() bool {
	switch s {
	case EmailStatusPending, EmailStatusSent, EmailStatusFailed, EmailStatusSkipped:
		return true
	}

	return false
}

// EmailLog is one dispatch attempt. Rows are never updated.
type EmailLog struct {
	ID          uint64      `gorm:"primaryKey" json:"id"`
	ToEmail     string      `gorm:"type:text;not null" json:"to_email"`
	Subject     string      `gorm:"not null" json:"subject"`
	Message     string      `gorm:"not null" json:"message"`
	Status      EmailStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	APIResponse string      `json:"api_response"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

// TableName keeps the table name stable across engines.
func (EmailLog) TableName() string {
	return "email_logs"
}
