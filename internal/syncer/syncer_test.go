package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eyeobad/aurora-pay/internal/account"
	"github.com/eyeobad/aurora-pay/internal/appstate"
	"github.com/eyeobad/aurora-pay/internal/domain"
	apperrors "github.com/eyeobad/aurora-pay/internal/errors"
	"github.com/eyeobad/aurora-pay/internal/gateway"
	"github.com/eyeobad/aurora-pay/internal/prefs"
	pkgredis "github.com/eyeobad/aurora-pay/pkg/redis"
)

type mockRemote struct {
	mock.Mock

	mu    sync.Mutex
	calls []string
}

func (m *mockRemote) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockRemote) SignUp(ctx context.Context, params gateway.SignupParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) SignIn(ctx context.Context, creds gateway.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRemote) Identity(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) UserByID(ctx context.Context, id string) (*domain.User, error) {
	m.record("user_by_id")
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockRemote) InsertUser(ctx context.Context, user *domain.User) error {
	m.record("insert_user")
	return m.Called(ctx, user).Error(0)
}

func (m *mockRemote) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	m.record("update_user")
	return m.Called(ctx, id, patch).Error(0)
}

func (m *mockRemote) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.record("insert_transaction")
	args := m.Called(ctx, tx)
	created, _ := args.Get(0).(*domain.Transaction)
	return created, args.Error(1)
}

func (m *mockRemote) TransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

type fixture struct {
	remote *mockRemote
	store  *appstate.Store
	prefs  *prefs.Store
	mini   *miniredis.Miniredis
	sync   *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	kv := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = kv.Close() })

	remote := &mockRemote{}
	store := appstate.NewStore()
	prefStore := prefs.New(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{
		remote: remote,
		store:  store,
		prefs:  prefStore,
		mini:   mr,
		sync:   New(remote, store, prefStore, slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoadSessionWithoutSession(t *testing.T) {
	f := newFixture(t)
	f.remote.On("Identity", mock.Anything).Return("", nil)

	require.NoError(t, f.sync.LoadSession(context.Background()))

	state := f.store.State()
	require.True(t, state.Initialized)
	require.False(t, state.Loading)
	require.Nil(t, state.User)
	f.remote.AssertNotCalled(t, "UserByID", mock.Anything, mock.Anything)
}

func TestLoadSessionInstallsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := &domain.User{
		ID:            "user-1",
		Name:          "Ada",
		Balance:       money("150.00"),
		AccountNumber: "0000001234",
	}
	txs := []domain.Transaction{
		{ID: "tx-2", UserID: "user-1", Type: domain.TypeTopUp, Amount: money("160"), Fee: money("10"), Status: domain.StatusCompleted},
	}

	require.NoError(t, f.mini.Set("wallet:prefs:user-1", `{"show_balance":false}`))

	f.remote.On("Identity", mock.Anything).Return("user-1", nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(user, nil)
	f.remote.On("TransactionsByUser", mock.Anything, "user-1").Return(txs, nil)

	require.NoError(t, f.sync.LoadSession(ctx))

	state := f.store.State()
	require.True(t, state.Initialized)
	require.Equal(t, "user-1", state.User.ID)
	require.True(t, state.Balance.Equal(money("150.00")))
	require.Len(t, state.Transactions, 1)
	require.False(t, state.Preferences.ShowBalance)
	require.True(t, state.Preferences.BiometricsEnabled)
}

func TestSignUpCreatesProfileRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	derived := account.DeriveNumber("user-1")
	stored := &domain.User{
		ID:            "user-1",
		Name:          "Ada",
		Identifier:    "ada@example.com",
		Balance:       decimal.Zero,
		AccountNumber: derived,
	}

	f.remote.On("SignUp", mock.Anything, gateway.SignupParams{
		Name:       "Ada",
		Identifier: "ada@example.com",
		Password:   "hunter22",
	}).Return("user-1", nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(nil, gateway.ErrUserNotFound).Once()
	f.remote.On("InsertUser", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "user-1" && u.AccountNumber == derived && u.Balance.IsZero()
	})).Return(nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(stored, nil)
	f.remote.On("TransactionsByUser", mock.Anything, "user-1").Return([]domain.Transaction{}, nil)

	user, err := f.sync.SignUp(ctx, gateway.SignupParams{
		Name:       "Ada",
		Identifier: "ada@example.com",
		Password:   "hunter22",
	})
	require.NoError(t, err)
	require.Equal(t, derived, user.AccountNumber)

	state := f.store.State()
	require.False(t, state.Loading)
	require.Equal(t, "user-1", state.User.ID)
	require.True(t, state.Balance.IsZero())
	f.remote.AssertExpectations(t)
}

func TestAccountNumberBackfillIsBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := &domain.User{ID: "user-1", Name: "Ada", Balance: money("20")}
	derived := account.DeriveNumber("user-1")

	f.remote.On("Identity", mock.Anything).Return("user-1", nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(legacy, nil)
	f.remote.On("TransactionsByUser", mock.Anything, "user-1").Return([]domain.Transaction{}, nil)
	f.remote.On("UpdateUser", mock.Anything, "user-1", mock.MatchedBy(func(p domain.UserPatch) bool {
		return p.AccountNumber != nil && *p.AccountNumber == derived
	})).Return(errors.New("row locked"))

	// The failed persist must not fail the load and must not leave the
	// user without a visible account number.
	require.NoError(t, f.sync.LoadSession(ctx))
	require.Equal(t, derived, f.store.State().User.AccountNumber)
}

func TestCreateTransactionWritesThenRereads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := &domain.User{ID: "user-1", Balance: money("100.00"), AccountNumber: "0000001234"}
	after := &domain.User{ID: "user-1", Balance: money("190.00"), AccountNumber: "0000001234"}

	f.remote.On("Identity", mock.Anything).Return("user-1", nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(before, nil).Once()
	f.remote.On("InsertTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TypeTopUp &&
			tx.Amount.Equal(money("100")) &&
			tx.Fee.Equal(money("10")) &&
			tx.Status == domain.StatusCompleted
	})).Return(&domain.Transaction{
		ID:        "tx-1",
		UserID:    "user-1",
		Type:      domain.TypeTopUp,
		Amount:    money("100"),
		Fee:       money("10"),
		Total:     money("90"),
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}, nil)
	f.remote.On("UpdateUser", mock.Anything, "user-1", mock.MatchedBy(func(p domain.UserPatch) bool {
		return p.Balance != nil && p.Balance.Equal(money("190.00"))
	})).Return(nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(after, nil)

	created, err := f.sync.CreateTransaction(ctx, CreateParams{
		Type:   domain.TypeTopUp,
		Amount: money("100"),
	})
	require.NoError(t, err)
	require.Equal(t, "tx-1", created.ID)

	state := f.store.State()
	require.False(t, state.Loading)
	require.Len(t, state.Transactions, 1)
	require.Equal(t, "tx-1", state.Transactions[0].ID)
	require.True(t, state.Balance.Equal(money("190.00")))

	// Transaction row first, balance second, confirmation read last.
	require.Equal(t,
		[]string{"user_by_id", "insert_transaction", "update_user", "user_by_id"},
		f.remote.calls,
	)
}

func TestCreateTransactionFailureLeavesSnapshotUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	balance := money("100.00")
	f.store.Dispatch(appstate.InitSuccess{
		User:         &domain.User{ID: "user-1"},
		Balance:      &balance,
		Transactions: []domain.Transaction{{ID: "tx-old"}},
	})

	f.remote.On("Identity", mock.Anything).Return("user-1", nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1", Balance: balance}, nil)
	f.remote.On("InsertTransaction", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := f.sync.CreateTransaction(ctx, CreateParams{Type: domain.TypeSend, Amount: money("10")})
	require.Error(t, err)
	require.True(t, apperrors.IsRemote(err))

	state := f.store.State()
	require.NotEmpty(t, state.Err)
	require.Len(t, state.Transactions, 1)
	require.Equal(t, "tx-old", state.Transactions[0].ID)
	require.True(t, state.Balance.Equal(balance))
	f.remote.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRequestNeverMovesMoney(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	explicit := money("25")
	f.remote.On("Identity", mock.Anything).Return("user-1", nil)
	f.remote.On("UserByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1", Balance: money("50")}, nil)
	f.remote.On("InsertTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TypeRequest &&
			tx.Fee.IsZero() &&
			tx.Status == domain.StatusPending
	})).Return(&domain.Transaction{
		ID:     "tx-req",
		UserID: "user-1",
		Type:   domain.TypeRequest,
		Amount: money("200"),
		Fee:    decimal.Zero,
		Status: domain.StatusPending,
	}, nil)

	// An explicit fee on a request is discarded.
	created, err := f.sync.CreateTransaction(ctx, CreateParams{
		Type:   domain.TypeRequest,
		Amount: money("200"),
		Fee:    &explicit,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, created.Status)

	f.remote.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	require.Equal(t, []string{"user_by_id", "insert_transaction"}, f.remote.calls)
}

func TestSignOutKeepsInitializedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	balance := money("40")
	f.store.Dispatch(appstate.InitSuccess{
		User:    &domain.User{ID: "user-1"},
		Balance: &balance,
	})
	f.remote.On("SignOut", mock.Anything).Return(nil)

	require.NoError(t, f.sync.SignOut(ctx))

	state := f.store.State()
	require.True(t, state.Initialized)
	require.Nil(t, state.User)
	require.Nil(t, state.Balance)
	require.Empty(t, state.Transactions)
}
