package account

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDeriveNumber(t *testing.T) {
	testCases := []struct {
		name   string
		userID string
	}{
		{name: "empty id", userID: ""},
		{name: "uuid style", userID: "a81bc81b-dead-4e5d-abff-90865d1e13b1"},
		{name: "short id", userID: "7"},
		{name: "unicode id", userID: "user-日本-42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveNumber(tc.userID)
			if len(got) != NumberLength {
				t.Fatalf("DeriveNumber(%q) = %q, want %d digits", tc.userID, got, NumberLength)
			}
			for _, c := range got {
				if c < '0' || c > '9' {
					t.Fatalf("DeriveNumber(%q) = %q contains non-digit %q", tc.userID, got, c)
				}
			}
			if again := DeriveNumber(tc.userID); again != got {
				t.Fatalf("DeriveNumber(%q) not stable: %q then %q", tc.userID, got, again)
			}
		})
	}
}

func TestDeriveNumberEmptyIsZero(t *testing.T) {
	if got := DeriveNumber(""); got != "0000000000" {
		t.Fatalf("DeriveNumber(\"\") = %q, want all zeros", got)
	}
}

func TestDeriveNumberKnownValues(t *testing.T) {
	// hash("ab") = ('a'*31 + 'b') mod 1e10 = 97*31+98 = 3105
	if got := DeriveNumber("ab"); got != "0000003105" {
		t.Fatalf("DeriveNumber(\"ab\") = %q, want 0000003105", got)
	}
}

func TestDeriveNumberProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total and deterministic for any string", prop.ForAll(
		func(id string) bool {
			first := DeriveNumber(id)
			if len(first) != NumberLength {
				return false
			}
			return DeriveNumber(id) == first
		},
		gen.AnyString(),
	))

	properties.Property("output is all digits", prop.ForAll(
		func(id string) bool {
			for _, c := range DeriveNumber(id) {
				if c < '0' || c > '9' {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
