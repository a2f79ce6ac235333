package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eyeobad/aurora-pay/internal/gateway"
)

// SignUp registers a new account and opens a session for it.
func (s *Store) SignUp(ctx context.Context, params gateway.SignupParams) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	accountID := uuid.NewString()

	const query = `
		INSERT INTO accounts (id, identifier, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identifier) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, accountID, params.Identifier, params.Name, hash, time.Now().UTC())
	if err != nil {
		s.log.Error("failed to create account", slog.Any("error", err))
		return "", fmt.Errorf("insert account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	if affected == 0 {
		return "", gateway.ErrIdentifierTaken
	}

	if err := s.openSession(accountID); err != nil {
		return "", err
	}

	return accountID, nil
}

// SignIn authenticates against the stored hash and opens a session.
func (s *Store) SignIn(ctx context.Context, creds gateway.Credentials) (string, error) {
	const query = `
		SELECT id, password_hash
		FROM accounts
		WHERE identifier = $1
	`

	var (
		accountID string
		hash      []byte
	)
	if err := s.db.QueryRowContext(ctx, query, creds.Identifier).Scan(&accountID, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", gateway.ErrInvalidCredentials
		}
		s.log.Error("failed to fetch account", slog.Any("error", err))
		return "", fmt.Errorf("select account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)); err != nil {
		return "", gateway.ErrInvalidCredentials
	}

	if err := s.openSession(accountID); err != nil {
		return "", err
	}

	return accountID, nil
}

// SignOut discards the current session token.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionToken = ""
	return nil
}

// Identity returns the user id carried by the current session token, or
// "" when no session is active or the token has expired.
func (s *Store) Identity(ctx context.Context) (string, error) {
	s.mu.Lock()
	token := s.sessionToken
	s.mu.Unlock()

	if token == "" {
		return "", nil
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		// Expired or tampered-with token means no session, not a failure.
		return "", nil
	}

	return claims.Subject, nil
}

func (s *Store) openSession(accountID string) error {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	s.mu.Lock()
	s.sessionToken = token
	s.mu.Unlock()

	return nil
}
