package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackjoi/internal/model"
)

type stubStore struct {
	total, completed int
	daily            []model.DailyStat
	err              error

	weekStart, weekEnd   time.Time
	dailyStart, dailyEnd time.Time
}

func (s *stubStore) WeeklyCounts(ctx context.Context, userID int64, start, end time.Time) (int, int, error) {
	s.weekStart, s.weekEnd = start, end
	return s.total, s.completed, s.err
}

func (s *stubStore) DailyCompletions(ctx context.Context, userID int64, start, end time.Time) ([]model.DailyStat, error) {
	s.dailyStart, s.dailyEnd = start, end
	return s.daily, s.err
}

func newService(store Store, now time.Time) *Service {
	svc := NewService(store, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestWeeklyRate(t *testing.T) {
	store := &stubStore{total: 3, completed: 2}
	svc := newService(store, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))

	week, err := svc.Weekly(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.WeeklyStats{TotalActivities: 3, CompletedActivities: 2, CompletionRate: 66.67}, week)
	assert.Equal(t, "2026-10-12", store.weekStart.Format(model.DateLayout))
	assert.Equal(t, "2026-10-18", store.weekEnd.Format(model.DateLayout))
}

func TestWeeklyNoActivities(t *testing.T) {
	svc := newService(&stubStore{}, time.Now())

	week, err := svc.Weekly(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, week.CompletionRate)
}

func TestDailyWindowAndEmptySeries(t *testing.T) {
	store := &stubStore{}
	svc := newService(store, time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC))

	daily, err := svc.Daily(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, daily)
	assert.Empty(t, daily)
	assert.Equal(t, "2026-02-24", store.dailyStart.Format(model.DateLayout))
	assert.Equal(t, "2026-03-02", store.dailyEnd.Format(model.DateLayout))
}

func TestSummaryPropagatesErrors(t *testing.T) {
	svc := newService(&stubStore{err: errors.New("boom")}, time.Now())

	_, err := svc.Summary(context.Background(), 1)
	assert.Error(t, err)
}
