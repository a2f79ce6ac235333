package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/domain"
)

// InsertTransaction creates a transaction row and returns it as stored.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	const query = `
		INSERT INTO transactions (id, user_id, type, counterparty, amount, fee, total, note, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	stored := *tx
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(
		ctx,
		query,
		stored.ID,
		stored.UserID,
		string(stored.Type),
		nullable(stored.Counterparty),
		stored.Amount.StringFixed(2),
		stored.Fee.StringFixed(2),
		stored.Total.StringFixed(2),
		nullable(stored.Note),
		string(stored.Status),
		stored.CreatedAt,
	); err != nil {
		s.log.Error("failed to create transaction",
			slog.String("user_id", stored.UserID),
			slog.String("type", string(stored.Type)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	return &stored, nil
}

// TransactionsByUser lists a user's transactions newest first.
func (s *Store) TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	const query = `
		SELECT id, user_id, type, counterparty, amount, fee, total, note, status, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.log.Error("failed to list transactions", slog.String("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// scanTransaction maps one row to the domain type, validating the closed
// enums at the boundary so nothing deeper has to re-check them.
func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		tx           domain.Transaction
		rawType      string
		rawStatus    string
		counterparty sql.NullString
		note         sql.NullString
		amount       string
		fee          string
		total        string
	)

	if err := rows.Scan(
		&tx.ID,
		&tx.UserID,
		&rawType,
		&counterparty,
		&amount,
		&fee,
		&total,
		&note,
		&rawStatus,
		&tx.CreatedAt,
	); err != nil {
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	txType, err := domain.ParseTransactionType(rawType)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	status, err := domain.ParseTransactionStatus(rawStatus)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}

	tx.Type = txType
	tx.Status = status
	tx.Counterparty = counterparty.String
	tx.Note = note.String

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
	}
	if tx.Fee, err = decimal.NewFromString(fee); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s fee: %w", tx.ID, err)
	}
	if tx.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s total: %w", tx.ID, err)
	}

	return tx, nil
}
