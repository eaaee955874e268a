package escrow

import "math"

// Advance/final split of the escrowed total. 10% is due when work starts,
// 90% on completion, before the rating releases the payout.
const (
	AdvanceShare = 0.10
	FinalShare   = 0.90
)

// DefaultCommissionPercent is the platform's cut of the total at release.
const DefaultCommissionPercent = 5.0

// Amounts are whole currency units; no fractional subunits are tracked.
// math.Round is round-half-away-from-zero, which is the rounding rule here.

// AdvanceAmount returns the advance due for a total budget.
func AdvanceAmount(total float64) float64 {
	return math.Round(total * AdvanceShare)
}

// FinalAmount returns the final payment due for a total budget.
func FinalAmount(total float64) float64 {
	return math.Round(total * FinalShare)
}

// CommissionSplit divides the total into the platform commission and the
// worker payout. The two always sum to the total: the payout is derived by
// subtraction rather than rounded independently.
func CommissionSplit(total, commissionPercent float64) (commission, payout float64) {
	commission = math.Round(total * commissionPercent / 100)
	payout = total - commission
	return commission, payout
}
