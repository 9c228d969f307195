package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackjoi/internal/apperror"
	"trackjoi/internal/model"
	"trackjoi/pkg/db"
	"trackjoi/pkg/otel"
	"trackjoi/pkg/outbox"
)

type ActivityLogRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewActivityLogRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ActivityLogRepository {
	return &ActivityLogRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

// Upsert records a completion report for an activity the user owns. The
// ownership check and the insert-or-overwrite are one statement, so concurrent
// reports for the same activity and date converge on a single row holding the
// last writer's status and notes.
func (r *ActivityLogRepository) Upsert(ctx context.Context, userID, activityID int64, in model.CompletionInput) (entry *model.ActivityLog, err error) {
	ctx, span := otel.DBSpan(ctx, "upsert", "activity_logs")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	date := in.Date.Format(model.DateLayout)
	r.logger.Debug("Recording completion",
		zap.Int64("user_id", userID),
		zap.Int64("activity_id", activityID),
		zap.String("date", date),
		zap.String("status", string(in.Status)),
	)

	query := `
        INSERT INTO activity_logs (activity_id, user_id, completed_date, status, notes)
        SELECT a.id, a.user_id, $3::date, $4::log_status, $5
        FROM activities a
        WHERE a.id = $1 AND a.user_id = $2
        ON CONFLICT (activity_id, completed_date) DO UPDATE
        SET status = EXCLUDED.status,
            notes = EXCLUDED.notes,
            created_at = NOW()
        RETURNING id, activity_id, user_id, completed_date, status::text, notes, created_at
    `

	var l model.ActivityLog
	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, query, activityID, userID, date, string(in.Status), in.Notes).Scan(
			&l.ID, &l.ActivityID, &l.UserID, &l.CompletedDate, &status, &l.Notes, &l.CreatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("upsert activity log: %w", err)
		}
		l.Status = model.LogStatus(status)

		if r.outbox == nil {
			return nil
		}
		id := activityID
		return outbox.InsertEventInTx(ctx, tx, r.outbox, aggregateActivity, &id, RoutingActivityCompleted, ActivityEvent{
			ActivityID: activityID,
			UserID:     userID,
			Date:       date,
			Status:     status,
			OccurredAt: l.CreatedAt,
		})
	})
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		r.logger.Error("Failed to record completion",
			zap.Int64("activity_id", activityID),
			zap.Error(err),
		)
		return nil, translateWriteError(err)
	}

	r.logger.Info("Completion recorded",
		zap.Int64("activity_id", activityID),
		zap.String("date", date),
		zap.String("status", string(l.Status)),
	)
	return &l, nil
}
