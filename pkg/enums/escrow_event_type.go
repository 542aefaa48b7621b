package enums

import "fmt"

// EscrowEventType tags an immutable money movement recorded against a booking.
type EscrowEventType string

const (
	EscrowEventDeposit          EscrowEventType = "deposit"
	EscrowEventDeltaCharge      EscrowEventType = "delta_charge"
	EscrowEventDeltaRefund      EscrowEventType = "delta_refund"
	EscrowEventFinalPayout      EscrowEventType = "final_payout"
	EscrowEventRetainageRelease EscrowEventType = "retainage_release"
	EscrowEventFlatPayout       EscrowEventType = "flat_payout"
)

var validEscrowEventTypes = []EscrowEventType{
	EscrowEventDeposit,
	EscrowEventDeltaCharge,
	EscrowEventDeltaRefund,
	EscrowEventFinalPayout,
	EscrowEventRetainageRelease,
	EscrowEventFlatPayout,
}

// String implements fmt.Stringer.
func (e EscrowEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscrowEventType.
func (e EscrowEventType) IsValid() bool {
	for _, candidate := range validEscrowEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEscrowEventType converts raw input into an EscrowEventType.
func ParseEscrowEventType(value string) (EscrowEventType, error) {
	for _, candidate := range validEscrowEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow event type %q", value)
}
