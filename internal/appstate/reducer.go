package appstate

import "github.com/eyeobad/aurora-pay/internal/domain"

// Reduce computes the next state from the previous state and one action.
// It is pure: no I/O, no clock, no dependence on anything outside the
// action payload and prev. Replaying the same action log always produces
// the same state.
func Reduce(prev State, action Action) State {
	next := prev

	switch a := action.(type) {
	case InitStart:
		next.Loading = true
		next.Err = ""
	case InitSuccess:
		next.Initialized = true
		next.Loading = false
		next.User = a.User
		next.Balance = a.Balance
		next.Transactions = a.Transactions
		next.Err = ""
	case SetLoading:
		next.Loading = a.Loading
	case SetError:
		next.Loading = false
		next.Err = a.Message
	case LoginSuccess:
		next.Loading = false
		next.User = a.User
		next.Balance = a.Balance
		next.Transactions = a.Transactions
		next.Err = ""
	case Logout:
		next = Initial()
		next.Initialized = true
	case AddTransaction:
		// Head insert into a fresh slice so prior snapshots stay intact.
		txs := make([]domain.Transaction, 0, len(prev.Transactions)+1)
		txs = append(txs, a.Transaction)
		txs = append(txs, prev.Transactions...)
		next.Transactions = txs
	case RefreshBalance:
		balance := a.Balance
		next.Balance = &balance
	case RefreshTransactions:
		next.Transactions = a.Transactions
	case SetPreferences:
		next.Preferences = a.Preferences
	case UpdatePreferences:
		next.Preferences = a.Patch.Apply(prev.Preferences)
	}

	return next
}
