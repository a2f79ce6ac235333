package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the profile row held by the remote store. The client keeps a
// read-mostly cached copy; the store owns it.
type User struct {
	ID            string
	Name          string
	Identifier    string
	Balance       decimal.Decimal
	AccountNumber string
	CreatedAt     time.Time
}

// UserPatch is a partial update applied to a stored user row. Nil fields
// are left untouched.
type UserPatch struct {
	AccountNumber *string
	Balance       *decimal.Decimal
}
