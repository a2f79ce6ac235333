// Package gateway defines the contract to the remote system of record:
// identity issuance plus row-level access to users and transactions.
// Every call is a separate network round trip; no multi-row atomicity is
// assumed, and callers must order their writes accordingly.
package gateway

import (
	"context"
	"errors"

	"github.com/eyeobad/aurora-pay/internal/domain"
)

var (
	// ErrUserNotFound indicates that no user row exists for the given id.
	ErrUserNotFound = errors.New("user row not found")
	// ErrInvalidCredentials indicates a failed sign-in attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentifierTaken indicates a sign-up with an identifier that is
	// already registered.
	ErrIdentifierTaken = errors.New("identifier already registered")
)

// SignupParams are the fields required to register a new account.
type SignupParams struct {
	Name       string
	Identifier string
	Password   string
}

// Credentials authenticate an existing account.
type Credentials struct {
	Identifier string
	Password   string
}

// RemoteLedger is the remote persistence and auth boundary the
// synchronizer reconciles against.
type RemoteLedger interface {
	// SignUp registers a new account and opens a session for it.
	SignUp(ctx context.Context, params SignupParams) (userID string, err error)
	// SignIn authenticates and opens a session. Returns
	// ErrInvalidCredentials when the identifier/password pair is wrong.
	SignIn(ctx context.Context, creds Credentials) (userID string, err error)
	// SignOut closes the current session.
	SignOut(ctx context.Context) error
	// Identity returns the user id of the current session, or "" when no
	// session is active.
	Identity(ctx context.Context) (string, error)

	// UserByID reads one user row. Returns ErrUserNotFound when absent.
	UserByID(ctx context.Context, id string) (*domain.User, error)
	// InsertUser creates a user row.
	InsertUser(ctx context.Context, user *domain.User) error
	// UpdateUser applies a partial update to a user row.
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error

	// InsertTransaction creates a transaction row and returns it as
	// stored (id and creation time filled in).
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	// TransactionsByUser lists a user's transactions newest first.
	TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
}
