// Package prefs persists per-user preference records in the device-local
// key-value store. Records are namespaced by user id so account switches
// on a shared device never leak one user's values to another.
package prefs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/eyeobad/aurora-pay/internal/domain"
)

const keyPrefix = "wallet:prefs:"

// KV is the device key-value store the adapter writes through. Both
// pkg/redis.Client and pkg/redis.MetricsClient satisfy it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Store reads and writes one small preference record per user.
type Store struct {
	kv  KV
	log *slog.Logger
}

// New constructs a preference store over the given device KV.
func New(kv KV, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}

	return &Store{kv: kv, log: log}
}

// Read returns the user's preferences with defaults merged under whatever
// partial record is stored, so newly added fields get sane values for
// existing users. A read failure falls back to defaults rather than
// blocking session load.
func (s *Store) Read(ctx context.Context, userID string) domain.Preferences {
	merged := domain.DefaultPreferences()

	raw, err := s.kv.Get(ctx, key(userID))
	if err != nil {
		// Missing key and transport errors look the same to the caller:
		// defaults. Only the log distinguishes them.
		s.log.Debug("preference read fell back to defaults",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return merged
	}

	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		s.log.Warn("stored preferences are malformed, using defaults",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return domain.DefaultPreferences()
	}

	return merged
}

// Write persists the record. Failures are logged and swallowed; losing a
// preference write must never fail the flow that triggered it.
func (s *Store) Write(ctx context.Context, userID string, p domain.Preferences) {
	raw, err := json.Marshal(p)
	if err != nil {
		s.log.Error("failed to encode preferences", slog.String("user_id", userID), slog.Any("error", err))
		return
	}

	if err := s.kv.Set(ctx, key(userID), string(raw), 0); err != nil {
		s.log.Warn("failed to persist preferences",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// Update reads, applies the patch, writes back, and returns the result.
func (s *Store) Update(ctx context.Context, userID string, patch domain.PreferencesPatch) domain.Preferences {
	next := patch.Apply(s.Read(ctx, userID))
	s.Write(ctx, userID, next)
	return next
}

func key(userID string) string {
	return keyPrefix + userID
}
