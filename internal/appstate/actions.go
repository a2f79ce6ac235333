package appstate

import (
	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/domain"
)

// Action is one member of the closed set of state mutations. An action
// carries its whole payload; Reduce may depend on nothing else.
type Action interface {
	name() string
}

// InitStart marks the beginning of the initial session load.
type InitStart struct{}

// InitSuccess installs the loaded snapshot and marks the state initialized.
type InitSuccess struct {
	User         *domain.User
	Balance      *decimal.Decimal
	Transactions []domain.Transaction
}

// SetLoading toggles the loading flag.
type SetLoading struct {
	Loading bool
}

// SetError records a user-visible error message and stops loading.
type SetError struct {
	Message string
}

// LoginSuccess installs a fresh snapshot after signup or login. Unlike
// InitSuccess it does not touch the initialized flag.
type LoginSuccess struct {
	User         *domain.User
	Balance      *decimal.Decimal
	Transactions []domain.Transaction
}

// Logout clears the session. Initialized stays true so the UI can tell
// "loaded then logged out" from "never loaded".
type Logout struct{}

// AddTransaction prepends a newly created transaction. New transactions
// are always the newest, so a head insert preserves the sort order.
type AddTransaction struct {
	Transaction domain.Transaction
}

// RefreshBalance replaces the displayed balance with a re-read value.
type RefreshBalance struct {
	Balance decimal.Decimal
}

// RefreshTransactions replaces the whole transaction list.
type RefreshTransactions struct {
	Transactions []domain.Transaction
}

// SetPreferences replaces the preference record.
type SetPreferences struct {
	Preferences domain.Preferences
}

// UpdatePreferences shallow-merges a partial preference change.
type UpdatePreferences struct {
	Patch domain.PreferencesPatch
}

func (InitStart) name() string           { return "init_start" }
func (InitSuccess) name() string         { return "init_success" }
func (SetLoading) name() string          { return "set_loading" }
func (SetError) name() string            { return "set_error" }
func (LoginSuccess) name() string        { return "login_success" }
func (Logout) name() string              { return "logout" }
func (AddTransaction) name() string      { return "add_transaction" }
func (RefreshBalance) name() string      { return "refresh_balance" }
func (RefreshTransactions) name() string { return "refresh_transactions" }
func (SetPreferences) name() string      { return "set_preferences" }
func (UpdatePreferences) name() string   { return "update_preferences" }
