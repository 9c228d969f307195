package model

import (
	"sort"
	"strings"
	"time"
)

// Weekday is a recurrence day token as stored in the day_of_week enum.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// Weekdays lists every token in calendar order, Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Ordinal is 1 for Monday through 7 for Sunday, 0 for an unknown token.
func (d Weekday) Ordinal() int {
	for i, w := range Weekdays {
		if w == d {
			return i + 1
		}
	}
	return 0
}

func (d Weekday) Valid() bool {
	return d.Ordinal() != 0
}

// ParseWeekday accepts a token case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// SortWeekdays orders days Monday→Sunday in place, whatever their insertion order.
func SortWeekdays(days []Weekday) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Ordinal() < days[j].Ordinal()
	})
}

type Activity struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description"`
	Reminder          bool      `json:"reminder"`
	IsActive          bool      `json:"is_active"`
	Days              []Weekday `json:"days"`
	CompletedThisWeek int       `json:"completed_this_week"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ActivityInput carries the writable fields of an activity.
type ActivityInput struct {
	Name        string
	Description *string
	Reminder    bool
	Days        []Weekday
}
