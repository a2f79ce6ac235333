package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the supported ledger movements.
type TransactionType string

const (
	TypeSend    TransactionType = "send"
	TypeReceive TransactionType = "receive"
	TypeTopUp   TransactionType = "topup"
	TypeRefund  TransactionType = "refund"
	TypeRequest TransactionType = "request"
)

// ParseTransactionType validates a raw type read from a store row.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch t := TransactionType(raw); t {
	case TypeSend, TypeReceive, TypeTopUp, TypeRefund, TypeRequest:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", raw)
	}
}

// TransactionStatus enumerates the lifecycle states of a transaction row.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// ParseTransactionStatus validates a raw status read from a store row.
func ParseTransactionStatus(raw string) (TransactionStatus, error) {
	switch s := TransactionStatus(raw); s {
	case StatusCompleted, StatusPending, StatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("unknown transaction status %q", raw)
	}
}

// Transaction is one ledger entry. Created exactly once when a
// user-initiated action succeeds at the remote store; immutable from the
// client's perspective afterwards.
type Transaction struct {
	ID           string
	UserID       string
	Type         TransactionType
	Counterparty string
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	Total        decimal.Decimal
	Note         string
	Status       TransactionStatus
	CreatedAt    time.Time
}
