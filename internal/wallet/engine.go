// Package wallet exposes the action surface the UI layer calls: session
// lifecycle, money movements, and preference toggles. Validation and
// authorization happen here, before anything reaches the synchronizer.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/appstate"
	"github.com/eyeobad/aurora-pay/internal/authgate"
	"github.com/eyeobad/aurora-pay/internal/domain"
	apperrors "github.com/eyeobad/aurora-pay/internal/errors"
	"github.com/eyeobad/aurora-pay/internal/gateway"
	"github.com/eyeobad/aurora-pay/internal/ledger"
	"github.com/eyeobad/aurora-pay/internal/notify"
	"github.com/eyeobad/aurora-pay/internal/prefs"
	"github.com/eyeobad/aurora-pay/internal/syncer"
	"github.com/eyeobad/aurora-pay/pkg/logger"
	"github.com/eyeobad/aurora-pay/pkg/metrics"
)

// Engine wires the synchronizer, gate, preference store, and notifier
// behind the API the UI consumes.
type Engine struct {
	store    *appstate.Store
	sync     *syncer.Synchronizer
	gate     *authgate.Gate
	prefs    *prefs.Store
	notifier notify.Notifier
	errs     *apperrors.Handler
	log      *slog.Logger
}

// New constructs an Engine.
func New(
	store *appstate.Store,
	sync *syncer.Synchronizer,
	gate *authgate.Gate,
	prefStore *prefs.Store,
	notifier notify.Notifier,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if errHandler == nil {
		errHandler = apperrors.NewHandler(log, false)
	}

	return &Engine{
		store:    store,
		sync:     sync,
		gate:     gate,
		prefs:    prefStore,
		notifier: notifier,
		errs:     errHandler,
		log:      log,
	}
}

// State returns the current snapshot for rendering.
func (e *Engine) State() appstate.State {
	return e.store.State()
}

// Subscribe registers an observer of state changes.
func (e *Engine) Subscribe(fn func(appstate.State)) func() {
	return e.store.Subscribe(fn)
}

// Transactions returns the current transaction list, newest first.
func (e *Engine) Transactions() []domain.Transaction {
	return e.store.State().Transactions
}

// LoadSession restores the session at process start.
func (e *Engine) LoadSession(ctx context.Context) error {
	return e.sync.LoadSession(logger.WithFlowID(ctx))
}

// Signup registers a new account and logs it in.
func (e *Engine) Signup(ctx context.Context, name, identifier, password string) (*domain.User, error) {
	if name == "" || identifier == "" || password == "" {
		return nil, apperrors.NewValidationError("name, identifier, and password are required")
	}

	ctx = logger.WithFlowID(ctx)
	user, err := e.sync.SignUp(ctx, gateway.SignupParams{
		Name:       name,
		Identifier: identifier,
		Password:   password,
	})
	e.record(ctx, "signup", err)
	return user, err
}

// Login authenticates an existing account.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	if identifier == "" || password == "" {
		return nil, apperrors.NewValidationError("identifier and password are required")
	}

	ctx = logger.WithFlowID(ctx)
	user, err := e.sync.SignIn(ctx, gateway.Credentials{
		Identifier: identifier,
		Password:   password,
	})
	e.record(ctx, "login", err)
	return user, err
}

// Logout closes the session and clears local state.
func (e *Engine) Logout(ctx context.Context) error {
	ctx = logger.WithFlowID(ctx)
	err := e.sync.SignOut(ctx)
	e.record(ctx, "logout", err)
	return err
}

// Refresh re-reads the authoritative snapshot.
func (e *Engine) Refresh(ctx context.Context) error {
	ctx = logger.WithFlowID(ctx)
	err := e.sync.Refresh(ctx)
	e.record(ctx, "refresh", err)
	return err
}

// MoneyOptions carry the documented option fields for money actions.
type MoneyOptions struct {
	Amount       decimal.Decimal
	Fee          *decimal.Decimal
	Note         string
	Counterparty string
	// SkipBiometric marks that the caller already completed the
	// alternate authorization path (a manually entered PIN). Without it,
	// the biometric gate must approve before any write.
	SkipBiometric bool
}

// TopUp adds funds to the wallet. Gated.
func (e *Engine) TopUp(ctx context.Context, opts MoneyOptions) (*domain.Transaction, error) {
	ctx = logger.WithFlowID(ctx)

	if err := e.validateAmount(opts.Amount); err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, opts.SkipBiometric, "Confirm top-up"); err != nil {
		e.record(ctx, "topup", err)
		return nil, err
	}

	note := opts.Note
	if note == "" {
		note = "Top up"
	}

	created, err := e.sync.CreateTransaction(ctx, syncer.CreateParams{
		Type:         domain.TypeTopUp,
		Counterparty: "TopUp",
		Amount:       opts.Amount,
		Fee:          opts.Fee,
		Note:         note,
	})
	e.record(ctx, "topup", err)
	if err != nil {
		return nil, err
	}

	notify.Detach(e.log, e.notifier, "Top-up complete",
		fmt.Sprintf("Added %s to your wallet.", formatCurrency(created.Amount)))

	return created, nil
}

// Send moves funds to a counterparty. Gated.
func (e *Engine) Send(ctx context.Context, opts MoneyOptions) (*domain.Transaction, error) {
	ctx = logger.WithFlowID(ctx)

	if err := e.validateAmount(opts.Amount); err != nil {
		return nil, err
	}
	if opts.Counterparty == "" {
		return nil, apperrors.NewValidationError("recipient is required")
	}
	if err := e.validateSufficientBalance(opts.Amount, opts.Fee); err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, opts.SkipBiometric, "Confirm payment"); err != nil {
		e.record(ctx, "send", err)
		return nil, err
	}

	created, err := e.sync.CreateTransaction(ctx, syncer.CreateParams{
		Type:         domain.TypeSend,
		Counterparty: opts.Counterparty,
		Amount:       opts.Amount,
		Fee:          opts.Fee,
		Note:         opts.Note,
	})
	e.record(ctx, "send", err)
	if err != nil {
		return nil, err
	}

	notify.Detach(e.log, e.notifier, "Payment sent",
		fmt.Sprintf("Sent %s to %s.", formatCurrency(created.Amount), created.Counterparty))

	return created, nil
}

// Request asks a counterparty for funds. No funds move, so the gate is
// not consulted and the row is created pending with a zero fee.
func (e *Engine) Request(ctx context.Context, opts MoneyOptions) (*domain.Transaction, error) {
	ctx = logger.WithFlowID(ctx)

	if err := e.validateAmount(opts.Amount); err != nil {
		return nil, err
	}

	created, err := e.sync.CreateTransaction(ctx, syncer.CreateParams{
		Type:         domain.TypeRequest,
		Counterparty: opts.Counterparty,
		Amount:       opts.Amount,
		Note:         opts.Note,
	})
	e.record(ctx, "request", err)
	if err != nil {
		return nil, err
	}

	notify.Detach(e.log, e.notifier, "Request sent",
		fmt.Sprintf("Requested %s.", formatCurrency(created.Amount)))

	return created, nil
}

// ConfirmBiometric runs the gate directly, for callers that need an
// explicit check outside a money flow.
func (e *Engine) ConfirmBiometric(ctx context.Context, reason string) bool {
	decision := e.gate.Confirm(logger.WithFlowID(ctx), e.currentUserID(), reason)
	metrics.RecordGateDecision(outcome(decision))
	return decision.Allowed
}

// SetBiometricsEnabled toggles biometric gating. Not itself gated.
func (e *Engine) SetBiometricsEnabled(ctx context.Context, enabled bool) {
	e.updatePreference(ctx, domain.PreferencesPatch{BiometricsEnabled: &enabled})
}

// SetShowCardNumbers toggles card digit masking. Revealing is gated.
func (e *Engine) SetShowCardNumbers(ctx context.Context, show bool) error {
	if err := e.authorizeReveal(ctx, show, "Reveal card number"); err != nil {
		return err
	}
	e.updatePreference(ctx, domain.PreferencesPatch{ShowCardNumbers: &show})
	return nil
}

// SetShowAccountNumber toggles account number masking. Revealing is gated.
func (e *Engine) SetShowAccountNumber(ctx context.Context, show bool) error {
	if err := e.authorizeReveal(ctx, show, "Reveal account number"); err != nil {
		return err
	}
	e.updatePreference(ctx, domain.PreferencesPatch{ShowAccountNumber: &show})
	return nil
}

// SetShowBalance toggles the balance display. Hiding money is not a
// secret; never gated.
func (e *Engine) SetShowBalance(ctx context.Context, show bool) {
	e.updatePreference(ctx, domain.PreferencesPatch{ShowBalance: &show})
}

// authorize enforces the sensitive-action contract for money movements:
// either the biometric gate approves or the caller attests the alternate
// PIN path completed. The write step is unreachable without one of the
// two.
func (e *Engine) authorize(ctx context.Context, skipBiometric bool, reason string) error {
	if skipBiometric {
		return nil
	}

	decision := e.gate.Confirm(ctx, e.currentUserID(), reason)
	metrics.RecordGateDecision(outcome(decision))
	if !decision.Allowed {
		return apperrors.NewAuthorizationError(fmt.Sprintf("gate denied %q: %s", reason, decision.Reason))
	}

	return nil
}

// authorizeReveal gates switching a masked field to visible. When the
// biometric preference is off the gate is skipped: these toggles are not
// money-moving, and the user has opted out of prompts.
func (e *Engine) authorizeReveal(ctx context.Context, show bool, reason string) error {
	if !show || !e.store.State().Preferences.BiometricsEnabled {
		return nil
	}

	decision := e.gate.Confirm(ctx, e.currentUserID(), reason)
	metrics.RecordGateDecision(outcome(decision))
	if !decision.Allowed {
		return apperrors.NewAuthorizationError(fmt.Sprintf("gate denied %q: %s", reason, decision.Reason))
	}

	return nil
}

func (e *Engine) updatePreference(ctx context.Context, patch domain.PreferencesPatch) {
	if userID := e.currentUserID(); userID != "" {
		e.prefs.Update(ctx, userID, patch)
	}
	e.store.Dispatch(appstate.UpdatePreferences{Patch: patch})
}

func (e *Engine) validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError("amount must be greater than zero")
	}
	return nil
}

// validateSufficientBalance rejects sends the displayed balance cannot
// cover. The remote store may still reject; the synchronizer surfaces
// that separately.
func (e *Engine) validateSufficientBalance(amount decimal.Decimal, explicitFee *decimal.Decimal) error {
	balance := e.store.State().Balance
	if balance == nil {
		return apperrors.NewSessionError("send without a loaded balance")
	}

	fee := ledger.ResolveFee(amount, explicitFee)
	if amount.Add(fee).GreaterThan(*balance) {
		return apperrors.NewValidationError("insufficient balance")
	}

	return nil
}

func (e *Engine) currentUserID() string {
	if user := e.store.State().User; user != nil {
		return user.ID
	}
	return ""
}

// record reports the action outcome to metrics and, on failure, runs the
// error through the handler so it is logged and captured consistently.
func (e *Engine) record(ctx context.Context, action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
		e.errs.Handle(ctx, err)
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			metrics.RecordError(appErr.Code, string(appErr.Severity))
		}
	}
	metrics.RecordWalletAction(action, status)
}

func outcome(decision authgate.Decision) string {
	if decision.Allowed {
		return "allowed"
	}
	return string(decision.Reason)
}

func formatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
