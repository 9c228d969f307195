package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackjoi/internal/apperror"
	"trackjoi/internal/model"
	"trackjoi/pkg/db"
	"trackjoi/pkg/otel"
	"trackjoi/pkg/outbox"
	"trackjoi/pkg/trace"
	"trackjoi/pkg/util"
)

const (
	aggregateActivity = "activity"

	RoutingActivityCreated   = "activity.created"
	RoutingActivityUpdated   = "activity.updated"
	RoutingActivityDeleted   = "activity.deleted"
	RoutingActivityCompleted = "activity.completed"
)

// ActivityEvent is the payload written to the outbox for every activity change.
type ActivityEvent struct {
	ActivityID int64           `json:"activity_id"`
	UserID     int64           `json:"user_id"`
	Name       string          `json:"name,omitempty"`
	Days       []model.Weekday `json:"days,omitempty"`
	Date       string          `json:"date,omitempty"`
	Status     string          `json:"status,omitempty"`
	TraceID    string          `json:"trace_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type ActivityRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

// NewActivityRepository wires the store. outboxRepo may be nil, in which case
// no activity events are recorded.
func NewActivityRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

// ListActiveByUser returns the user's active activities, newest first, each with
// its days in calendar order and the number of completions logged between
// weekStart and weekEnd inclusive.
func (r *ActivityRepository) ListActiveByUser(ctx context.Context, userID int64, weekStart, weekEnd time.Time) (activities []model.Activity, err error) {
	ctx, span := otel.DBSpan(ctx, "select", "activities")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	r.logger.Debug("Listing active activities for user", zap.Int64("user_id", userID))

	query := `
        SELECT a.id, a.user_id, a.name, a.description, a.reminder, a.is_active,
               a.created_at, a.updated_at,
               COALESCE(
                   (SELECT array_agg(d.day_of_week::text ORDER BY d.day_of_week)
                    FROM activity_days d
                    WHERE d.activity_id = a.id),
                   '{}'
               ) AS days,
               (SELECT COUNT(DISTINCT l.id)
                FROM activity_logs l
                WHERE l.activity_id = a.id
                  AND l.status = 'completed'
                  AND l.completed_date BETWEEN $2::date AND $3::date
               ) AS completed_this_week
        FROM activities a
        WHERE a.user_id = $1 AND a.is_active = TRUE
        ORDER BY a.created_at DESC, a.id DESC
    `

	rows, err := r.db.Query(ctx, query, userID,
		weekStart.Format(model.DateLayout),
		weekEnd.Format(model.DateLayout),
	)
	if err != nil {
		r.logger.Error("Failed to list activities", zap.Error(err))
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities = make([]model.Activity, 0)
	for rows.Next() {
		var (
			a    model.Activity
			days []string
		)
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Name,
			&a.Description,
			&a.Reminder,
			&a.IsActive,
			&a.CreatedAt,
			&a.UpdatedAt,
			&days,
			&a.CompletedThisWeek,
		); err != nil {
			r.logger.Error("Failed to scan activity", zap.Error(err))
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Days = toWeekdays(days)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	r.logger.Debug("Listed activities",
		zap.Int64("user_id", userID),
		zap.Int("count", len(activities)),
	)
	return activities, nil
}

// Create inserts the activity and its day set in one transaction. Any failure,
// including an unknown day token, leaves nothing behind.
func (r *ActivityRepository) Create(ctx context.Context, userID int64, in model.ActivityInput) (activity *model.Activity, err error) {
	ctx, span := otel.DBSpan(ctx, "insert", "activities")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	r.logger.Debug("Creating activity",
		zap.Int64("user_id", userID),
		zap.String("name", in.Name),
		zap.Int("days", len(in.Days)),
	)

	a := model.Activity{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Reminder:    in.Reminder,
	}

	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
            INSERT INTO activities (user_id, name, description, reminder)
            VALUES ($1, $2, $3, $4)
            RETURNING id, is_active, created_at, updated_at
        `
		if err := tx.QueryRow(ctx, query, userID, in.Name, in.Description, in.Reminder).
			Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		if err := insertDays(ctx, tx, a.ID, in.Days); err != nil {
			return err
		}

		return r.recordEvent(ctx, tx, RoutingActivityCreated, ActivityEvent{
			ActivityID: a.ID,
			UserID:     userID,
			Name:       a.Name,
			Days:       in.Days,
		})
	})
	if err != nil {
		r.logger.Error("Failed to create activity, transaction rolled back",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, translateWriteError(err)
	}

	a.Days = sortedCopy(in.Days)
	r.logger.Info("Activity created",
		zap.Int64("activity_id", a.ID),
		zap.Int64("user_id", userID),
	)
	return &a, nil
}

// Update rewrites the activity's scalar fields and replaces its whole day set.
// Ownership is checked under a row lock inside the same transaction; a missing
// or foreign activity yields apperror.ErrNotFound.
func (r *ActivityRepository) Update(ctx context.Context, userID, activityID int64, in model.ActivityInput) (activity *model.Activity, err error) {
	ctx, span := otel.DBSpan(ctx, "update", "activities")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	r.logger.Debug("Updating activity",
		zap.Int64("user_id", userID),
		zap.Int64("activity_id", activityID),
	)

	var a model.Activity
	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM activities WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			activityID, userID,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check activity owner: %w", err)
		}

		query := `
            UPDATE activities
            SET name = $1, description = $2, reminder = $3, updated_at = NOW()
            WHERE id = $4
            RETURNING id, user_id, name, description, reminder, is_active, created_at, updated_at
        `
		if err := tx.QueryRow(ctx, query, in.Name, in.Description, in.Reminder, activityID).Scan(
			&a.ID, &a.UserID, &a.Name, &a.Description, &a.Reminder, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update activity: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM activity_days WHERE activity_id = $1`, activityID); err != nil {
			return fmt.Errorf("delete activity days: %w", err)
		}

		if err := insertDays(ctx, tx, activityID, in.Days); err != nil {
			return err
		}

		return r.recordEvent(ctx, tx, RoutingActivityUpdated, ActivityEvent{
			ActivityID: activityID,
			UserID:     userID,
			Name:       a.Name,
			Days:       in.Days,
		})
	})
	if errors.Is(err, apperror.ErrNotFound) {
		r.logger.Info("Activity not found for update",
			zap.Int64("user_id", userID),
			zap.Int64("activity_id", activityID),
		)
		return nil, err
	}
	if err != nil {
		r.logger.Error("Failed to update activity, transaction rolled back",
			zap.Int64("activity_id", activityID),
			zap.Error(err),
		)
		return nil, translateWriteError(err)
	}

	a.Days = sortedCopy(in.Days)
	r.logger.Info("Activity updated", zap.Int64("activity_id", activityID))
	return &a, nil
}

// SoftDelete marks the activity inactive. Its days and logs are kept.
func (r *ActivityRepository) SoftDelete(ctx context.Context, userID, activityID int64) (err error) {
	ctx, span := otel.DBSpan(ctx, "update", "activities")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE activities SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			activityID, userID,
		)
		if err != nil {
			return fmt.Errorf("soft delete activity: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperror.ErrNotFound
		}

		return r.recordEvent(ctx, tx, RoutingActivityDeleted, ActivityEvent{
			ActivityID: activityID,
			UserID:     userID,
		})
	})
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		r.logger.Error("Failed to delete activity",
			zap.Int64("activity_id", activityID),
			zap.Error(err),
		)
		return err
	}
	if err == nil {
		r.logger.Info("Activity deleted", zap.Int64("activity_id", activityID))
	}
	return err
}

func (r *ActivityRepository) recordEvent(ctx context.Context, tx pgx.Tx, routingKey string, ev ActivityEvent) error {
	if r.outbox == nil {
		return nil
	}
	ev.TraceID = trace.FromContext(ctx)
	ev.OccurredAt = time.Now().UTC()
	id := ev.ActivityID
	return outbox.InsertEventInTx(ctx, tx, r.outbox, aggregateActivity, &id, routingKey, ev)
}

// insertDays writes one activity_days row per entry, in the order given.
func insertDays(ctx context.Context, tx pgx.Tx, activityID int64, days []model.Weekday) error {
	for _, day := range days {
		if _, err := tx.Exec(ctx,
			`INSERT INTO activity_days (activity_id, day_of_week) VALUES ($1, $2::day_of_week)`,
			activityID, string(day),
		); err != nil {
			return fmt.Errorf("insert activity day %q: %w", day, err)
		}
	}
	return nil
}

// translateWriteError turns a rejected value into a validation error and
// passes everything else through.
func translateWriteError(err error) error {
	if util.IsInvalidInput(err) {
		return apperror.Invalid("days", "invalid activity data")
	}
	return err
}

func toWeekdays(days []string) []model.Weekday {
	out := make([]model.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, model.Weekday(d))
	}
	model.SortWeekdays(out)
	return out
}

func sortedCopy(days []model.Weekday) []model.Weekday {
	out := make([]model.Weekday, len(days))
	copy(out, days)
	model.SortWeekdays(out)
	return out
}
