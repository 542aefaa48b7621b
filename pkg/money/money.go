package money

import "fmt"

// BpsDenominator is the number of basis points in a whole (100%).
const BpsDenominator = 10000

// PercentToBps converts a whole-number percentage into basis points.
func PercentToBps(percent int64) int64 {
	return percent * 100
}

// ApplyBps computes amountCents × bps / 10000, rounding half up.
// All escrow percentages (deposit, platform fee, retainage) run through here
// so every caller rounds the same way.
func ApplyBps(amountCents, bps int64) (int64, error) {
	if amountCents < 0 {
		return 0, fmt.Errorf("amount must be non-negative, got %d", amountCents)
	}
	if bps < 0 || bps > BpsDenominator {
		return 0, fmt.Errorf("basis points must be within [0, %d], got %d", BpsDenominator, bps)
	}
	return (amountCents*bps + BpsDenominator/2) / BpsDenominator, nil
}

// ValidateBps reports an error when bps falls outside [0, 10000].
func ValidateBps(bps int64) error {
	if bps < 0 || bps > BpsDenominator {
		return fmt.Errorf("basis points must be within [0, %d], got %d", BpsDenominator, bps)
	}
	return nil
}

// Delta returns finalCents − depositCents. The sign carries meaning: positive
// means the buyer still owes money, negative means a refund is due.
func Delta(finalCents, depositCents int64) int64 {
	return finalCents - depositCents
}

// Abs returns the absolute value of cents.
func Abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}
