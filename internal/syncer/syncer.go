// Package syncer reconciles the in-memory application state with the
// remote system of record: session lifecycle, snapshot loads, and the
// write-then-reread cycle for new transactions.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/account"
	"github.com/eyeobad/aurora-pay/internal/appstate"
	"github.com/eyeobad/aurora-pay/internal/domain"
	apperrors "github.com/eyeobad/aurora-pay/internal/errors"
	"github.com/eyeobad/aurora-pay/internal/gateway"
	"github.com/eyeobad/aurora-pay/internal/ledger"
	"github.com/eyeobad/aurora-pay/internal/prefs"
	"github.com/eyeobad/aurora-pay/pkg/metrics"
)

// Synchronizer orchestrates every flow that touches the remote store. It
// is the only component that dispatches snapshot data into the app state.
type Synchronizer struct {
	remote gateway.RemoteLedger
	store  *appstate.Store
	prefs  *prefs.Store
	log    *slog.Logger
}

// New constructs a Synchronizer.
func New(remote gateway.RemoteLedger, store *appstate.Store, prefStore *prefs.Store, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}

	return &Synchronizer{
		remote: remote,
		store:  store,
		prefs:  prefStore,
		log:    log,
	}
}

// snapshot is one consistent read of the authoritative state.
type snapshot struct {
	user         *domain.User
	balance      decimal.Decimal
	transactions []domain.Transaction
}

// LoadSession reads the current identity and, when a session exists, the
// full authoritative snapshot. Called once at process start.
func (s *Synchronizer) LoadSession(ctx context.Context) error {
	defer metrics.TimeSyncOperation("load_session")()

	s.store.Dispatch(appstate.InitStart{})

	userID, err := s.remote.Identity(ctx)
	if err != nil {
		return s.fail("load_session", err)
	}

	if userID == "" {
		s.store.Dispatch(appstate.InitSuccess{})
		return nil
	}

	snap, err := s.loadSnapshot(ctx, userID, "", "")
	if err != nil {
		return s.fail("load_session", err)
	}

	s.store.Dispatch(appstate.SetPreferences{Preferences: s.prefs.Read(ctx, userID)})
	s.store.Dispatch(appstate.InitSuccess{
		User:         snap.user,
		Balance:      &snap.balance,
		Transactions: snap.transactions,
	})

	return nil
}

// SignUp registers a new account, creates its profile row, and installs
// the logged-in snapshot.
func (s *Synchronizer) SignUp(ctx context.Context, params gateway.SignupParams) (*domain.User, error) {
	defer metrics.TimeSyncOperation("signup")()

	s.store.Dispatch(appstate.SetLoading{Loading: true})

	userID, err := s.remote.SignUp(ctx, params)
	if err != nil {
		return nil, s.fail("signup", err)
	}

	return s.installSession(ctx, userID, params.Name, params.Identifier)
}

// SignIn authenticates an existing account and installs the logged-in
// snapshot, creating the profile row when it is missing.
func (s *Synchronizer) SignIn(ctx context.Context, creds gateway.Credentials) (*domain.User, error) {
	defer metrics.TimeSyncOperation("login")()

	s.store.Dispatch(appstate.SetLoading{Loading: true})

	userID, err := s.remote.SignIn(ctx, creds)
	if err != nil {
		return nil, s.fail("login", err)
	}

	return s.installSession(ctx, userID, creds.Identifier, creds.Identifier)
}

// SignOut closes the remote session and resets the local state. The
// initialized flag survives so the UI can route to the login screen
// instead of the splash screen.
func (s *Synchronizer) SignOut(ctx context.Context) error {
	defer metrics.TimeSyncOperation("logout")()

	s.store.Dispatch(appstate.SetLoading{Loading: true})

	if err := s.remote.SignOut(ctx); err != nil {
		return s.fail("logout", err)
	}

	s.store.Dispatch(appstate.Logout{})
	return nil
}

// Refresh re-runs the session read path without re-authenticating,
// pulling in changes made on other devices.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	defer metrics.TimeSyncOperation("refresh")()

	s.store.Dispatch(appstate.SetLoading{Loading: true})

	userID, err := s.remote.Identity(ctx)
	if err != nil {
		return s.fail("refresh", err)
	}

	if userID == "" {
		s.store.Dispatch(appstate.InitSuccess{})
		return nil
	}

	snap, err := s.loadSnapshot(ctx, userID, "", "")
	if err != nil {
		return s.fail("refresh", err)
	}

	s.store.Dispatch(appstate.RefreshTransactions{Transactions: snap.transactions})
	s.store.Dispatch(appstate.RefreshBalance{Balance: snap.balance})
	s.store.Dispatch(appstate.LoginSuccess{
		User:         snap.user,
		Balance:      &snap.balance,
		Transactions: snap.transactions,
	})

	return nil
}

// CreateParams describe one user-initiated transaction.
type CreateParams struct {
	Type         domain.TransactionType
	Counterparty string
	Amount       decimal.Decimal
	Fee          *decimal.Decimal
	Note         string
}

// CreateTransaction performs the write-then-reread cycle:
//
//  1. compute fee and total,
//  2. insert the transaction row,
//  3. update the user row's balance (skipped for requests),
//  4. re-read the authoritative balance,
//  5. dispatch the new transaction and the fresh balance together.
//
// The transaction row is written before the balance update so that a
// crash between the two leaves an orphaned audit record rather than an
// unexplained balance change. Nothing is dispatched until the re-read
// confirms the write, so the UI never shows a transaction whose balance
// effect is unconfirmed.
func (s *Synchronizer) CreateTransaction(ctx context.Context, params CreateParams) (*domain.Transaction, error) {
	defer metrics.TimeSyncOperation("create_transaction")()

	s.store.Dispatch(appstate.SetLoading{Loading: true})
	defer s.store.Dispatch(appstate.SetLoading{Loading: false})

	userID, err := s.remote.Identity(ctx)
	if err != nil {
		return nil, s.fail("create_transaction", err)
	}
	if userID == "" {
		err := apperrors.NewSessionError("create transaction without a session")
		s.store.Dispatch(appstate.SetError{Message: err.UserMessage})
		return nil, err
	}

	user, err := s.remote.UserByID(ctx, userID)
	if err != nil {
		return nil, s.fail("create_transaction", err)
	}

	fee := ledger.ResolveFee(params.Amount, params.Fee)
	if params.Type == domain.TypeRequest {
		fee = decimal.Zero
	}

	tx := &domain.Transaction{
		UserID:       userID,
		Type:         params.Type,
		Counterparty: params.Counterparty,
		Amount:       params.Amount,
		Fee:          fee,
		Total:        ledger.Total(params.Type, params.Amount, fee),
		Note:         params.Note,
		Status:       statusFor(params.Type),
	}

	created, err := s.remote.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, s.fail("create_transaction", err)
	}

	balance := user.Balance
	if params.Type != domain.TypeRequest {
		newBalance := ledger.ApplyDelta(user.Balance, ledger.BalanceDelta(params.Type, params.Amount, fee))
		if err := s.remote.UpdateUser(ctx, userID, domain.UserPatch{Balance: &newBalance}); err != nil {
			// The transaction row exists but the balance write failed;
			// the orphaned record is reconciled on the next load.
			return nil, s.fail("create_transaction", err)
		}

		// Re-read rather than trust the locally computed value.
		fresh, err := s.remote.UserByID(ctx, userID)
		if err != nil {
			return nil, s.fail("create_transaction", err)
		}
		balance = fresh.Balance
	}

	s.store.Dispatch(appstate.AddTransaction{Transaction: *created})
	if params.Type != domain.TypeRequest {
		s.store.Dispatch(appstate.RefreshBalance{Balance: balance})
	}

	return created, nil
}

// installSession loads the snapshot and preferences after a successful
// signup or login and dispatches the logged-in state.
func (s *Synchronizer) installSession(ctx context.Context, userID, name, identifier string) (*domain.User, error) {
	snap, err := s.loadSnapshot(ctx, userID, name, identifier)
	if err != nil {
		return nil, s.fail("install_session", err)
	}

	s.store.Dispatch(appstate.SetPreferences{Preferences: s.prefs.Read(ctx, userID)})
	s.store.Dispatch(appstate.LoginSuccess{
		User:         snap.user,
		Balance:      &snap.balance,
		Transactions: snap.transactions,
	})

	return snap.user, nil
}

// loadSnapshot reads or creates the user row, backfills its account
// number, and fetches the transaction list and fresh balance
// concurrently.
func (s *Synchronizer) loadSnapshot(ctx context.Context, userID, name, identifier string) (*snapshot, error) {
	user, err := s.ensureUser(ctx, userID, name, identifier)
	if err != nil {
		return nil, err
	}

	var (
		wg         sync.WaitGroup
		txs        []domain.Transaction
		txErr      error
		balance    = user.Balance
		balanceErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		txs, txErr = s.remote.TransactionsByUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		fresh, err := s.remote.UserByID(ctx, userID)
		if err != nil {
			balanceErr = err
			return
		}
		balance = fresh.Balance
	}()
	wg.Wait()

	if txErr != nil {
		return nil, txErr
	}
	if balanceErr != nil {
		return nil, balanceErr
	}

	s.warnOnDrift(userID, balance, txs)

	return &snapshot{user: user, balance: balance, transactions: txs}, nil
}

// ensureUser reads the profile row, creating it when the auth subsystem
// knows the user but no row exists yet, and lazily backfilling a missing
// account number.
func (s *Synchronizer) ensureUser(ctx context.Context, userID, name, identifier string) (*domain.User, error) {
	user, err := s.remote.UserByID(ctx, userID)
	if err == nil {
		if user.AccountNumber == "" {
			user.AccountNumber = s.backfillAccountNumber(ctx, userID)
		}
		return user, nil
	}

	if !errors.Is(err, gateway.ErrUserNotFound) {
		return nil, err
	}

	created := &domain.User{
		ID:            userID,
		Name:          name,
		Identifier:    identifier,
		Balance:       decimal.Zero,
		AccountNumber: account.DeriveNumber(userID),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.remote.InsertUser(ctx, created); err != nil {
		return nil, err
	}

	return created, nil
}

// backfillAccountNumber computes the derived number and attempts to
// persist it. The persist is best-effort: the user must never see a
// blank account number, but a failed write must not block the flow.
func (s *Synchronizer) backfillAccountNumber(ctx context.Context, userID string) string {
	number := account.DeriveNumber(userID)

	if err := s.remote.UpdateUser(ctx, userID, domain.UserPatch{AccountNumber: &number}); err != nil {
		s.log.Warn("account number backfill failed, returning derived value",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	return number
}

// warnOnDrift compares the stored balance against the sum of the
// transaction log. The stored balance stays authoritative; the warning
// only makes a crash between transaction insert and balance update
// visible.
func (s *Synchronizer) warnOnDrift(userID string, stored decimal.Decimal, txs []domain.Transaction) {
	computed := decimal.Zero
	for _, tx := range txs {
		if tx.Status != domain.StatusCompleted {
			continue
		}
		computed = ledger.ApplyDelta(computed, ledger.BalanceDelta(tx.Type, tx.Amount, tx.Fee))
	}

	if !computed.Equal(stored) {
		s.log.Warn("stored balance disagrees with transaction log",
			slog.String("user_id", userID),
			slog.String("stored", stored.String()),
			slog.String("computed", computed.String()),
		)
	}
}

func statusFor(txType domain.TransactionType) domain.TransactionStatus {
	if txType == domain.TypeRequest {
		return domain.StatusPending
	}
	return domain.StatusCompleted
}

// fail wraps err, dispatches the user-facing message, and returns the
// wrapped error. Prior snapshot fields are left untouched.
func (s *Synchronizer) fail(operation string, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewRemoteError(operation, err)
	}

	s.log.Error("sync operation failed",
		slog.String("operation", operation),
		slog.Any("error", err),
	)
	s.store.Dispatch(appstate.SetError{Message: appErr.UserMessage})

	return appErr
}
