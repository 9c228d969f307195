package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortWeekdaysCalendarOrder(t *testing.T) {
	days := []Weekday{Sunday, Friday, Monday, Wednesday}
	SortWeekdays(days)
	assert.Equal(t, []Weekday{Monday, Wednesday, Friday, Sunday}, days)
}

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday(" MON ")
	assert.True(t, ok)
	assert.Equal(t, Monday, d)

	_, ok = ParseWeekday("funday")
	assert.False(t, ok)
}

func TestLogStatusValid(t *testing.T) {
	assert.True(t, StatusCompleted.Valid())
	assert.True(t, StatusSkipped.Valid())
	assert.False(t, LogStatus("done").Valid())
}
