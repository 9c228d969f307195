package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackjoi/internal/model"
	"trackjoi/pkg/otel"
)

type StatsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStatsRepository(db *pgxpool.Pool, logger *zap.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

// WeeklyCounts returns how many active activities the user has and how many of
// them have at least one completed log between start and end inclusive.
func (r *StatsRepository) WeeklyCounts(ctx context.Context, userID int64, start, end time.Time) (total, completed int, err error) {
	ctx, span := otel.DBSpan(ctx, "select", "activities")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	query := `
        SELECT COUNT(DISTINCT a.id), COUNT(DISTINCT l.activity_id)
        FROM activities a
        LEFT JOIN activity_logs l
               ON l.activity_id = a.id
              AND l.user_id = $1
              AND l.status = 'completed'
              AND l.completed_date BETWEEN $2::date AND $3::date
        WHERE a.user_id = $1 AND a.is_active = TRUE
    `
	err = r.db.QueryRow(ctx, query, userID,
		start.Format(model.DateLayout),
		end.Format(model.DateLayout),
	).Scan(&total, &completed)
	if err != nil {
		r.logger.Error("Failed to compute weekly stats", zap.Int64("user_id", userID), zap.Error(err))
		return 0, 0, fmt.Errorf("weekly stats: %w", err)
	}
	return total, completed, nil
}

// DailyCompletions counts completed logs per date for the user's active
// activities. Dates without completions are absent from the result.
func (r *StatsRepository) DailyCompletions(ctx context.Context, userID int64, start, end time.Time) (daily []model.DailyStat, err error) {
	ctx, span := otel.DBSpan(ctx, "select", "activity_logs")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	query := `
        SELECT l.completed_date, COUNT(l.id)
        FROM activity_logs l
        INNER JOIN activities a ON a.id = l.activity_id
        WHERE l.user_id = $1
          AND a.is_active = TRUE
          AND l.status = 'completed'
          AND l.completed_date BETWEEN $2::date AND $3::date
        GROUP BY l.completed_date
        ORDER BY l.completed_date
    `
	rows, err := r.db.Query(ctx, query, userID,
		start.Format(model.DateLayout),
		end.Format(model.DateLayout),
	)
	if err != nil {
		r.logger.Error("Failed to compute daily stats", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	defer rows.Close()

	daily = make([]model.DailyStat, 0, 7)
	for rows.Next() {
		var (
			day   time.Time
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		daily = append(daily, model.DailyStat{
			CompletedDate:  day.Format(model.DateLayout),
			CompletedCount: count,
		})
	}
	return daily, rows.Err()
}
