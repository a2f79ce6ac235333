package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/domain"
	"github.com/eyeobad/aurora-pay/internal/gateway"
)

// UserByID retrieves one user profile row.
func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT id, name, identifier, balance, account_number, created_at
		FROM users
		WHERE id = $1
	`

	row := s.db.QueryRowContext(ctx, query, id)

	var (
		user          domain.User
		balance       string
		accountNumber sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Identifier,
		&balance,
		&accountNumber,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrUserNotFound
		}

		s.log.Error("failed to fetch user", slog.String("user_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select user: %w", err)
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	user.Balance = parsed
	user.AccountNumber = accountNumber.String

	return &user, nil
}

// InsertUser creates a user profile row.
func (s *Store) InsertUser(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (id, name, identifier, balance, account_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Identifier,
		user.Balance.StringFixed(2),
		nullable(user.AccountNumber),
		createdAt,
	); err != nil {
		s.log.Error("failed to create user", slog.String("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// UpdateUser applies a partial update to a user row. A no-op patch
// returns immediately.
func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	assignments := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if patch.AccountNumber != nil {
		args = append(args, *patch.AccountNumber)
		assignments = append(assignments, fmt.Sprintf("account_number = $%d", len(args)))
	}
	if patch.Balance != nil {
		args = append(args, patch.Balance.StringFixed(2))
		assignments = append(assignments, fmt.Sprintf("balance = $%d", len(args)))
	}

	if len(assignments) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(assignments, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return gateway.ErrUserNotFound
	}

	return nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
