package model

import (
	"math"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type WeeklyStats struct {
	TotalActivities     int     `json:"total_activities"`
	CompletedActivities int     `json:"completed_activities"`
	CompletionRate      float64 `json:"completion_rate"`
}

type DailyStat struct {
	CompletedDate  string `json:"completed_date"`
	CompletedCount int    `json:"completed_count"`
}

type Stats struct {
	Week  WeeklyStats `json:"week"`
	Daily []DailyStat `json:"daily"`
}

// DateOf truncates t to midnight of its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekWindow returns the Monday and Sunday of the week containing today.
// The week always starts on Monday regardless of locale.
func WeekWindow(today time.Time) (start, end time.Time) {
	today = DateOf(today)
	offset := (int(today.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	start = today.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// TrailingWindow returns the first and last day of the n days ending today.
func TrailingWindow(today time.Time, n int) (start, end time.Time) {
	end = DateOf(today)
	start = end.AddDate(0, 0, -(n - 1))
	return start, end
}

// CompletionRate is completed/total as a percentage rounded to two decimals,
// 0 when total is 0 and clamped to [0,100].
func CompletionRate(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*100) / 100
}
