package wallet

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eyeobad/aurora-pay/internal/account"
	"github.com/eyeobad/aurora-pay/internal/appstate"
	"github.com/eyeobad/aurora-pay/internal/authgate"
	"github.com/eyeobad/aurora-pay/internal/domain"
	apperrors "github.com/eyeobad/aurora-pay/internal/errors"
	"github.com/eyeobad/aurora-pay/internal/gateway"
	"github.com/eyeobad/aurora-pay/internal/notify"
	"github.com/eyeobad/aurora-pay/internal/prefs"
	"github.com/eyeobad/aurora-pay/internal/syncer"
	pkgredis "github.com/eyeobad/aurora-pay/pkg/redis"
)

// fakeLedger is an in-memory stand-in for the remote system of record.
type fakeLedger struct {
	mu           sync.Mutex
	accounts     map[string]string // identifier -> user id
	users        map[string]*domain.User
	transactions map[string][]domain.Transaction
	session      string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts:     make(map[string]string),
		users:        make(map[string]*domain.User),
		transactions: make(map[string][]domain.Transaction),
	}
}

func (f *fakeLedger) SignUp(ctx context.Context, params gateway.SignupParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, taken := f.accounts[params.Identifier]; taken {
		return "", gateway.ErrIdentifierTaken
	}

	id := uuid.NewString()
	f.accounts[params.Identifier] = id
	f.session = id
	return id, nil
}

func (f *fakeLedger) SignIn(ctx context.Context, creds gateway.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.accounts[creds.Identifier]
	if !ok {
		return "", gateway.ErrInvalidCredentials
	}
	f.session = id
	return id, nil
}

func (f *fakeLedger) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = ""
	return nil
}

func (f *fakeLedger) Identity(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakeLedger) UserByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, gateway.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeLedger) InsertUser(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeLedger) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return gateway.ErrUserNotFound
	}
	if patch.AccountNumber != nil {
		user.AccountNumber = *patch.AccountNumber
	}
	if patch.Balance != nil {
		user.Balance = *patch.Balance
	}
	return nil
}

func (f *fakeLedger) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	created := *tx
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()
	f.transactions[tx.UserID] = append([]domain.Transaction{created}, f.transactions[tx.UserID]...)
	return &created, nil
}

func (f *fakeLedger) TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txs := make([]domain.Transaction, len(f.transactions[userID]))
	copy(txs, f.transactions[userID])
	return txs, nil
}

func (f *fakeLedger) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transactions[userID])
}

// approvePrompter passes every biometric check.
type approvePrompter struct{}

func (approvePrompter) HasHardware(context.Context) bool { return true }
func (approvePrompter) IsEnrolled(context.Context) bool  { return true }
func (approvePrompter) Authenticate(context.Context, string) (bool, error) {
	return true, nil
}

// declinePrompter has working hardware but the user refuses every prompt.
type declinePrompter struct{}

func (declinePrompter) HasHardware(context.Context) bool { return true }
func (declinePrompter) IsEnrolled(context.Context) bool  { return true }
func (declinePrompter) Authenticate(context.Context, string) (bool, error) {
	return false, nil
}

func newEngine(t *testing.T, ledger gateway.RemoteLedger, prompter authgate.Prompter) *Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	kv := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = kv.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := appstate.NewStore()
	prefStore := prefs.New(kv, log)
	sync := syncer.New(ledger, store, prefStore, log)
	gate := authgate.New(prompter, prefStore, store, log)

	errHandler := apperrors.NewHandler(log, false)

	return New(store, sync, gate, prefStore, notify.NewSlogNotifier(log), errHandler, log)
}

func signup(t *testing.T, e *Engine) *domain.User {
	t.Helper()

	user, err := e.Signup(context.Background(), "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)
	return user
}

func TestSignupStartsEmptyWithDerivedAccountNumber(t *testing.T) {
	e := newEngine(t, newFakeLedger(), approvePrompter{})

	user := signup(t, e)
	require.True(t, user.Balance.IsZero())
	require.Equal(t, account.DeriveNumber(user.ID), user.AccountNumber)
	require.Len(t, user.AccountNumber, account.NumberLength)

	state := e.State()
	require.True(t, state.Balance.IsZero())
	require.Empty(t, state.Transactions)
	require.False(t, state.Loading)
}

func TestTopUpCreditsAmountMinusFee(t *testing.T) {
	e := newEngine(t, newFakeLedger(), approvePrompter{})
	signup(t, e)

	created, err := e.TopUp(context.Background(), MoneyOptions{Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.Equal(t, domain.TypeTopUp, created.Type)
	require.Equal(t, domain.StatusCompleted, created.Status)
	require.True(t, created.Fee.Equal(decimal.NewFromInt(10)))

	state := e.State()
	require.True(t, state.Balance.Equal(decimal.RequireFromString("90")),
		"balance is %s", state.Balance)
	require.Len(t, state.Transactions, 1)
	require.Equal(t, created.ID, state.Transactions[0].ID)
}

func TestSendDebitsAmountPlusFee(t *testing.T) {
	e := newEngine(t, newFakeLedger(), approvePrompter{})
	signup(t, e)

	_, err := e.TopUp(context.Background(), MoneyOptions{Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	// 1000 - 15 fee = 985.

	created, err := e.Send(context.Background(), MoneyOptions{
		Amount:       decimal.NewFromInt(200),
		Counterparty: "Grace",
	})
	require.NoError(t, err)
	require.True(t, created.Fee.Equal(decimal.NewFromInt(10)))

	state := e.State()
	// 985 - (200 + 10) = 775.
	require.True(t, state.Balance.Equal(decimal.NewFromInt(775)),
		"balance is %s", state.Balance)
	require.Equal(t, created.ID, state.Transactions[0].ID)
	require.Len(t, state.Transactions, 2)
}

func TestSendRejectsInsufficientBalance(t *testing.T) {
	ledger := newFakeLedger()
	e := newEngine(t, ledger, approvePrompter{})
	user := signup(t, e)

	_, err := e.Send(context.Background(), MoneyOptions{
		Amount:       decimal.NewFromInt(50),
		Counterparty: "Grace",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))
	require.Equal(t, 0, ledger.count(user.ID))
}

func TestSendRequiresCounterparty(t *testing.T) {
	e := newEngine(t, newFakeLedger(), approvePrompter{})
	signup(t, e)

	_, err := e.Send(context.Background(), MoneyOptions{Amount: decimal.NewFromInt(5)})
	require.True(t, apperrors.IsValidation(err))
}

func TestDeniedGateBlocksMoneyMovement(t *testing.T) {
	ledger := newFakeLedger()
	e := newEngine(t, ledger, declinePrompter{})
	user := signup(t, e)

	_, err := e.TopUp(context.Background(), MoneyOptions{Amount: decimal.NewFromInt(100)})
	require.Error(t, err)
	require.True(t, apperrors.IsAuthorization(err))
	require.Equal(t, 0, ledger.count(user.ID))
	require.True(t, e.State().Balance.IsZero())
}

func TestSkipBiometricBypassesGate(t *testing.T) {
	e := newEngine(t, newFakeLedger(), declinePrompter{})
	signup(t, e)

	_, err := e.TopUp(context.Background(), MoneyOptions{
		Amount:        decimal.NewFromInt(100),
		SkipBiometric: true,
	})
	require.NoError(t, err)
	require.True(t, e.State().Balance.Equal(decimal.NewFromInt(90)))
}

func TestRequestIsUngatedAndPending(t *testing.T) {
	e := newEngine(t, newFakeLedger(), declinePrompter{})
	signup(t, e)

	created, err := e.Request(context.Background(), MoneyOptions{
		Amount:       decimal.NewFromInt(500),
		Counterparty: "Grace",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, created.Status)
	require.True(t, created.Fee.IsZero())

	state := e.State()
	require.True(t, state.Balance.IsZero())
	require.Len(t, state.Transactions, 1)
}

func TestRevealTogglesAreGated(t *testing.T) {
	e := newEngine(t, newFakeLedger(), declinePrompter{})
	signup(t, e)

	err := e.SetShowCardNumbers(context.Background(), true)
	require.True(t, apperrors.IsAuthorization(err))
	require.False(t, e.State().Preferences.ShowCardNumbers)

	// Hiding again never prompts.
	require.NoError(t, e.SetShowCardNumbers(context.Background(), false))
}

func TestRevealSkipsGateWhenBiometricsDisabled(t *testing.T) {
	e := newEngine(t, newFakeLedger(), declinePrompter{})
	signup(t, e)

	e.SetBiometricsEnabled(context.Background(), false)
	require.NoError(t, e.SetShowAccountNumber(context.Background(), true))
	require.True(t, e.State().Preferences.ShowAccountNumber)
}

func TestShowBalanceToggleIsNeverGated(t *testing.T) {
	e := newEngine(t, newFakeLedger(), declinePrompter{})
	signup(t, e)

	e.SetShowBalance(context.Background(), false)
	require.False(t, e.State().Preferences.ShowBalance)
}

func TestLogoutThenLoginRestoresHistory(t *testing.T) {
	ledger := newFakeLedger()
	e := newEngine(t, ledger, approvePrompter{})
	signup(t, e)
	ctx := context.Background()

	_, err := e.TopUp(ctx, MoneyOptions{Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	require.NoError(t, e.Logout(ctx))
	state := e.State()
	require.True(t, state.Initialized)
	require.Nil(t, state.User)
	require.Empty(t, state.Transactions)

	_, err = e.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)

	state = e.State()
	require.Len(t, state.Transactions, 1)
	require.True(t, state.Balance.Equal(decimal.NewFromInt(90)))
}

func TestValidationRunsBeforeTheGate(t *testing.T) {
	e := newEngine(t, newFakeLedger(), declinePrompter{})
	signup(t, e)

	// A declining gate would fail the call with an authorization error;
	// a zero amount must fail validation first.
	_, err := e.TopUp(context.Background(), MoneyOptions{Amount: decimal.Zero})
	require.True(t, apperrors.IsValidation(err))
}
