package authgate

import "context"

// UnavailablePrompter is the prompter used when the process runs without
// a platform biometric service, e.g. headless or in tests. It reports no
// hardware, so the gate denies and disables the preference.
type UnavailablePrompter struct{}

func (UnavailablePrompter) HasHardware(ctx context.Context) bool { return false }
func (UnavailablePrompter) IsEnrolled(ctx context.Context) bool  { return false }

func (UnavailablePrompter) Authenticate(ctx context.Context, reason string) (bool, error) {
	return false, nil
}
