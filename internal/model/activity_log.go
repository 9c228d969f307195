package model

import "time"

// LogStatus is the outcome recorded for an activity on a given day.
type LogStatus string

const (
	StatusCompleted LogStatus = "completed"
	StatusSkipped   LogStatus = "skipped"
	StatusMissed    LogStatus = "missed"
)

func (s LogStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusMissed:
		return true
	}
	return false
}

type ActivityLog struct {
	ID            int64     `json:"id"`
	ActivityID    int64     `json:"activity_id"`
	UserID        int64     `json:"user_id"`
	CompletedDate time.Time `json:"completed_date"`
	Status        LogStatus `json:"status"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// CompletionInput is one completion report for an owned activity.
type CompletionInput struct {
	Date   time.Time
	Status LogStatus
	Notes  *string
}
