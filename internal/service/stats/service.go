package stats

import (
	"context"
	"fmt"
	"time"

	"trackjoi/internal/model"
	"trackjoi/pkg/otel"
)

// DailyWindow is the number of days, today included, in the daily series.
const DailyWindow = 7

type Store interface {
	WeeklyCounts(ctx context.Context, userID int64, start, end time.Time) (total, completed int, err error)
	DailyCompletions(ctx context.Context, userID int64, start, end time.Time) ([]model.DailyStat, error)
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) today() time.Time {
	return model.DateOf(s.now().In(s.loc))
}

// Weekly reports how many active activities were completed at least once in
// the current Monday-to-Sunday week.
func (s *Service) Weekly(ctx context.Context, userID int64) (model.WeeklyStats, error) {
	start, end := model.WeekWindow(s.today())
	total, completed, err := s.store.WeeklyCounts(ctx, userID, start, end)
	if err != nil {
		return model.WeeklyStats{}, fmt.Errorf("weekly counts: %w", err)
	}
	return model.WeeklyStats{
		TotalActivities:     total,
		CompletedActivities: completed,
		CompletionRate:      model.CompletionRate(completed, total),
	}, nil
}

// Daily returns the completed counts for the trailing week. Days without
// completions are absent.
func (s *Service) Daily(ctx context.Context, userID int64) ([]model.DailyStat, error) {
	start, end := model.TrailingWindow(s.today(), DailyWindow)
	daily, err := s.store.DailyCompletions(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily completions: %w", err)
	}
	if daily == nil {
		daily = []model.DailyStat{}
	}
	return daily, nil
}

func (s *Service) Summary(ctx context.Context, userID int64) (*model.Stats, error) {
	ctx, span := otel.StartSpan(ctx, "stats.summary")
	defer span.End()

	week, err := s.Weekly(ctx, userID)
	if err != nil {
		return nil, err
	}
	daily, err := s.Daily(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Stats{Week: week, Daily: daily}, nil
}
