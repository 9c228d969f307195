package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trackjoi/internal/apperror"
	"trackjoi/internal/model"
	"trackjoi/pkg/metrics"
)

const errNameAndDays = "name and days of week are required"

type ActivityStore interface {
	ListActiveByUser(ctx context.Context, userID int64, weekStart, weekEnd time.Time) ([]model.Activity, error)
	Create(ctx context.Context, userID int64, in model.ActivityInput) (*model.Activity, error)
	Update(ctx context.Context, userID, activityID int64, in model.ActivityInput) (*model.Activity, error)
	SoftDelete(ctx context.Context, userID, activityID int64) error
}

type CompletionStore interface {
	Upsert(ctx context.Context, userID, activityID int64, in model.CompletionInput) (*model.ActivityLog, error)
}

// ActivityRequest is the create/update body as received from the client.
type ActivityRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Reminder    *bool    `json:"reminder"`
	Days        []string `json:"days"`
}

// CompletionRequest is the completion body; every field is optional.
type CompletionRequest struct {
	Date   string  `json:"date"`
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type Service struct {
	activities  ActivityStore
	completions CompletionStore
	loc         *time.Location
	now         func() time.Time
	logger      *zap.Logger
}

// NewService builds the activity service. "Today" is evaluated in loc.
func NewService(activities ActivityStore, completions CompletionStore, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		activities:  activities,
		completions: completions,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *Service) today() time.Time {
	return model.DateOf(s.now().In(s.loc))
}

// List returns the user's active activities with this week's completion counts.
func (s *Service) List(ctx context.Context, userID int64) ([]model.Activity, error) {
	start, end := model.WeekWindow(s.today())
	activities, err := s.activities.ListActiveByUser(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

func (s *Service) Create(ctx context.Context, userID int64, req ActivityRequest) (*model.Activity, error) {
	in, err := normalize(req)
	if err != nil {
		return nil, err
	}
	a, err := s.activities.Create(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, userID, activityID int64, req ActivityRequest) (*model.Activity, error) {
	in, err := normalize(req)
	if err != nil {
		return nil, err
	}
	a, err := s.activities.Update(ctx, userID, activityID, in)
	if err != nil {
		return nil, fmt.Errorf("update activity %d: %w", activityID, err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, userID, activityID int64) error {
	if err := s.activities.SoftDelete(ctx, userID, activityID); err != nil {
		return fmt.Errorf("delete activity %d: %w", activityID, err)
	}
	return nil
}

// RecordCompletion upserts the report for (activity, date). Date defaults to
// today and status to completed.
func (s *Service) RecordCompletion(ctx context.Context, userID, activityID int64, req CompletionRequest) (*model.ActivityLog, error) {
	in := model.CompletionInput{
		Date:   s.today(),
		Status: model.StatusCompleted,
		Notes:  req.Notes,
	}

	if d := strings.TrimSpace(req.Date); d != "" {
		parsed, err := time.ParseInLocation(model.DateLayout, d, s.loc)
		if err != nil {
			return nil, apperror.Invalid("date", "date must be in YYYY-MM-DD format")
		}
		in.Date = parsed
	}
	if st := strings.TrimSpace(req.Status); st != "" {
		in.Status = model.LogStatus(strings.ToLower(st))
		if !in.Status.Valid() {
			return nil, apperror.Invalid("status", "status must be one of completed, skipped, missed")
		}
	}

	entry, err := s.completions.Upsert(ctx, userID, activityID, in)
	if err != nil {
		return nil, fmt.Errorf("record completion for activity %d: %w", activityID, err)
	}

	metrics.IncrementCompletion(string(entry.Status))
	s.logger.Debug("Completion recorded",
		zap.Int64("activity_id", activityID),
		zap.String("date", in.Date.Format(model.DateLayout)),
		zap.String("status", string(entry.Status)),
	)
	return entry, nil
}

func normalize(req ActivityRequest) (model.ActivityInput, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(req.Days) == 0 {
		return model.ActivityInput{}, apperror.Invalid("name", errNameAndDays)
	}

	days := make([]model.Weekday, 0, len(req.Days))
	for _, raw := range req.Days {
		d, ok := model.ParseWeekday(raw)
		if !ok {
			return model.ActivityInput{}, apperror.Invalid("days", fmt.Sprintf("unknown day of week %q", raw))
		}
		days = append(days, d)
	}

	in := model.ActivityInput{
		Name: name,
		Days: days,
	}
	if req.Description != nil {
		if desc := strings.TrimSpace(*req.Description); desc != "" {
			in.Description = &desc
		}
	}
	if req.Reminder != nil {
		in.Reminder = *req.Reminder
	}
	return in, nil
}
