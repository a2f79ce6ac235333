// Package account derives stable display account numbers from user IDs.
package account

import "fmt"

// NumberLength is the width of a derived account number.
const NumberLength = 10

const modulus = 10_000_000_000

// DeriveNumber maps a user ID to its 10-digit display account number.
// The mapping is a base-31 polynomial fold over the UTF-16 code units of
// the ID, reduced mod 10^10 at every step, so the same ID always yields
// the same number. An empty ID folds to "0000000000".
func DeriveNumber(userID string) string {
	var hash int64
	for _, r := range userID {
		if r > 0xFFFF {
			// Supplementary-plane runes count as their surrogate pair.
			r -= 0x10000
			high := int64(0xD800 + (r >> 10))
			low := int64(0xDC00 + (r & 0x3FF))
			hash = (hash*31 + high) % modulus
			hash = (hash*31 + low) % modulus
			continue
		}
		hash = (hash*31 + int64(r)) % modulus
	}
	return fmt.Sprintf("%0*d", NumberLength, hash%modulus)
}
