package domain

// Preferences is the small per-user record kept in device-local storage.
// It is never synced to the remote store.
type Preferences struct {
	BiometricsEnabled bool `json:"biometrics_enabled"`
	ShowCardNumbers   bool `json:"show_card_numbers"`
	ShowAccountNumber bool `json:"show_account_number"`
	ShowBalance       bool `json:"show_balance"`
}

// DefaultPreferences returns the record created the first time a user is
// seen on a device.
func DefaultPreferences() Preferences {
	return Preferences{
		BiometricsEnabled: true,
		ShowCardNumbers:   false,
		ShowAccountNumber: false,
		ShowBalance:       true,
	}
}

// PreferencesPatch is a partial preference update. Nil fields keep their
// current value.
type PreferencesPatch struct {
	BiometricsEnabled *bool
	ShowCardNumbers   *bool
	ShowAccountNumber *bool
	ShowBalance       *bool
}

// Apply merges the patch over p and returns the result.
func (patch PreferencesPatch) Apply(p Preferences) Preferences {
	if patch.BiometricsEnabled != nil {
		p.BiometricsEnabled = *patch.BiometricsEnabled
	}
	if patch.ShowCardNumbers != nil {
		p.ShowCardNumbers = *patch.ShowCardNumbers
	}
	if patch.ShowAccountNumber != nil {
		p.ShowAccountNumber = *patch.ShowAccountNumber
	}
	if patch.ShowBalance != nil {
		p.ShowBalance = *patch.ShowBalance
	}
	return p
}
