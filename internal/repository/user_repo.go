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
	"trackjoi/pkg/otel"
	"trackjoi/pkg/util"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// CreateUser inserts a new user and fills in its id and timestamps.
// A taken email yields apperror.ErrConflict.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) (err error) {
	ctx, span := otel.DBSpan(ctx, "insert", "users")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	query := `
        INSERT INTO users (email, password_hash)
        VALUES ($1, $2)
        RETURNING id, is_active, created_at
    `
	err = r.db.QueryRow(ctx, query, u.Email, u.PasswordHash).Scan(&u.ID, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if util.IsUniqueViolation(err) {
			return apperror.ErrConflict
		}
		r.logger.Error("Failed to insert user", zap.Error(err))
		return fmt.Errorf("insert user: %w", err)
	}

	r.logger.Info("User created", zap.Int64("user_id", u.ID))
	return nil
}

// FindActiveByEmail returns the active user with the given email, or
// apperror.ErrNotFound.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (u *model.User, err error) {
	ctx, span := otel.DBSpan(ctx, "select", "users")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	query := `
        SELECT id, email, password_hash, is_active, created_at, last_login
        FROM users
        WHERE email = $1 AND is_active = TRUE
    `
	var user model.User
	err = r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.LastLogin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find user by email", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// TouchLastLogin stamps last_login with the database clock.
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID int64) (err error) {
	ctx, span := otel.DBSpan(ctx, "update", "users")
	defer func() { otel.WrapDBError(span, err); span.End() }()

	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to update last_login", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("update last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
