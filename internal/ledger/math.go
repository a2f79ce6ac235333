// Package ledger holds the pure money math: fees, totals, and balance
// deltas per transaction type.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/eyeobad/aurora-pay/internal/domain"
)

var (
	// MinFee is the floor applied to every computed fee, in currency units.
	MinFee = decimal.NewFromInt(10)
	// FeeRate is the proportional fee applied to a transaction amount.
	FeeRate = decimal.RequireFromString("0.015")
)

// Fee computes the fee for an amount: max(MinFee, amount*FeeRate) rounded
// to 2 decimal places. Request transactions carry a zero fee instead; that
// rule is enforced by the caller, not here.
func Fee(amount decimal.Decimal) decimal.Decimal {
	computed := amount.Mul(FeeRate).Round(2)
	if computed.LessThan(MinFee) {
		return MinFee
	}
	return computed
}

// ResolveFee returns the explicit fee when one was supplied, the computed
// fee otherwise.
func ResolveFee(amount decimal.Decimal, explicit *decimal.Decimal) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	return Fee(amount)
}

// Total computes the recorded transaction total: amount plus fee for
// outgoing sends, amount minus fee otherwise.
func Total(txType domain.TransactionType, amount, fee decimal.Decimal) decimal.Decimal {
	if txType == domain.TypeSend {
		return amount.Add(fee)
	}
	return amount.Sub(fee)
}

// BalanceDelta computes the signed amount a transaction adds to the
// current balance. Requests represent a pending ask and never move money.
func BalanceDelta(txType domain.TransactionType, amount, fee decimal.Decimal) decimal.Decimal {
	switch txType {
	case domain.TypeSend:
		return amount.Add(fee).Neg()
	case domain.TypeReceive, domain.TypeTopUp, domain.TypeRefund:
		return amount.Sub(fee)
	default:
		return decimal.Zero
	}
}

// ApplyDelta adds delta to balance and rounds to 2 decimal places. The
// rounding point is the final balance write, not the intermediate math.
func ApplyDelta(balance, delta decimal.Decimal) decimal.Decimal {
	return balance.Add(delta).Round(2)
}
