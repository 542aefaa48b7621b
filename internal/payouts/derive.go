package payouts

import (
	"github.com/rmoralesdev/casaworks-backend/internal/payments"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// Derive maps a connected account's capability flags to a payout status.
// Both the onboarding status endpoint and the account.updated webhook go
// through this single mapping so the two paths can never disagree.
func Derive(status *payments.AccountStatus) enums.PayoutStatus {
	if status == nil || status.AccountID == "" {
		return enums.PayoutStatusUnset
	}
	if status.ChargesEnabled && status.PayoutsEnabled {
		return enums.PayoutStatusReady
	}
	if status.DisabledReason != "" {
		return enums.PayoutStatusRestricted
	}
	return enums.PayoutStatusPending
}
