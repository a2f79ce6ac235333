// Package authgate guards money-moving and secret-revealing actions
// behind the platform biometric check.
package authgate

import (
	"context"
	"log/slog"

	"github.com/eyeobad/aurora-pay/internal/appstate"
	"github.com/eyeobad/aurora-pay/internal/domain"
	"github.com/eyeobad/aurora-pay/internal/prefs"
)

// Prompter is the platform biometric capability and prompt service.
type Prompter interface {
	HasHardware(ctx context.Context) bool
	IsEnrolled(ctx context.Context) bool
	Authenticate(ctx context.Context, reason string) (bool, error)
}

// DenyReason explains why Confirm returned a denial.
type DenyReason string

const (
	DenyNone DenyReason = ""
	// DenyPreferenceDisabled: the user has biometrics switched off.
	DenyPreferenceDisabled DenyReason = "preference_disabled"
	// DenyHardwareUnavailable: no hardware or nothing enrolled. The
	// stored preference is flipped off as a side effect so future calls
	// short-circuit.
	DenyHardwareUnavailable DenyReason = "hardware_unavailable"
	// DenyDeclined: the prompt ran and the user failed or dismissed it.
	DenyDeclined DenyReason = "declined"
	// DenyPromptFailed: the platform prompt itself errored.
	DenyPromptFailed DenyReason = "prompt_failed"
)

// Decision is the outcome of one gate invocation. Nothing about it is
// persisted; every sensitive action runs the gate again.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Gate wraps sensitive actions with a local authorization check.
type Gate struct {
	prompter Prompter
	prefs    *prefs.Store
	store    *appstate.Store
	log      *slog.Logger
}

// New constructs a Gate. The appstate store supplies the active user's
// preference copy; the prefs store persists the auto-disable side effect.
func New(prompter Prompter, prefStore *prefs.Store, store *appstate.Store, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}

	return &Gate{
		prompter: prompter,
		prefs:    prefStore,
		store:    store,
		log:      log,
	}
}

// Confirm runs the authorization check for the given user and
// human-readable reason. Callers must treat a denial as "not confirmed":
// money-moving flows need an alternate approval path before proceeding.
func (g *Gate) Confirm(ctx context.Context, userID, reason string) Decision {
	if !g.store.State().Preferences.BiometricsEnabled {
		return Decision{Allowed: false, Reason: DenyPreferenceDisabled}
	}

	if !g.prompter.HasHardware(ctx) || !g.prompter.IsEnrolled(ctx) {
		g.disableBiometrics(ctx, userID)
		return Decision{Allowed: false, Reason: DenyHardwareUnavailable}
	}

	ok, err := g.prompter.Authenticate(ctx, reason)
	if err != nil {
		g.log.Warn("biometric prompt failed",
			slog.String("user_id", userID),
			slog.String("reason", reason),
			slog.Any("error", err),
		)
		return Decision{Allowed: false, Reason: DenyPromptFailed}
	}
	if !ok {
		return Decision{Allowed: false, Reason: DenyDeclined}
	}

	return Decision{Allowed: true}
}

// disableBiometrics flips the stored preference off so future calls skip
// the unusable prompt. The persist is best-effort; the in-memory copy is
// updated regardless.
func (g *Gate) disableBiometrics(ctx context.Context, userID string) {
	g.log.Info("biometrics unusable on this device, disabling preference",
		slog.String("user_id", userID),
	)

	disabled := false
	patch := domain.PreferencesPatch{BiometricsEnabled: &disabled}

	if userID != "" {
		g.prefs.Update(ctx, userID, patch)
	}
	g.store.Dispatch(appstate.UpdatePreferences{Patch: patch})
}
