// Package appstate owns the client-side view of the wallet: a single
// state value mutated only through a closed set of actions. It is a
// cache of the remote system of record, never a source of truth.
package appstate

import (
	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/domain"
)

// State is everything the UI renders. Transactions are ordered newest
// first at all times.
type State struct {
	Initialized  bool
	Loading      bool
	User         *domain.User
	Balance      *decimal.Decimal
	Transactions []domain.Transaction
	Preferences  domain.Preferences
	Err          string
}

// Initial returns the process-start state: nothing loaded, default
// preferences.
func Initial() State {
	return State{
		Preferences: domain.DefaultPreferences(),
	}
}
