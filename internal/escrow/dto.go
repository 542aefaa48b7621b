package escrow

import (
	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// Actor identifies the authenticated caller of a transition.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// RespondInput captures the homeowner's answer to a booking request.
type RespondInput struct {
	Accept bool `json:"accept"`
}

// PayDepositInput carries the billing details for the deposit charge.
type PayDepositInput struct {
	PaymentMethodID   string `json:"payment_method_id" validate:"required"`
	SavePaymentMethod bool   `json:"save_pm"`
}

// ProposeFinalInput is the provider's final price proposal.
type ProposeFinalInput struct {
	FinalCents int64   `json:"final_cents" validate:"gte=0"`
	Note       *string `json:"note"`
}

// ApproveFinalInput is the homeowner's answer to a final proposal. A fresh
// payment method is only needed when the delta is positive and no method was
// saved at deposit time.
type ApproveFinalInput struct {
	Agree           bool   `json:"agree"`
	PaymentMethodID string `json:"payment_method_id"`
}

// SettleInput optionally withholds part of the payout as retainage.
type SettleInput struct {
	RetainageBps int64 `json:"retainage_bps" validate:"gte=0,lte=10000"`
}

// BookingFinancials is the monetary snapshot every transition returns.
type BookingFinancials struct {
	BookingID          uuid.UUID           `json:"booking_id"`
	Status             enums.BookingStatus `json:"status"`
	TotalCents         int64               `json:"total_cents"`
	PlatformFeeCents   int64               `json:"platform_fee_cents"`
	AmountBudgeted     int64               `json:"amount_budgeted_cents"`
	AmountDeposit      int64               `json:"amount_deposit_cents"`
	AmountFinal        int64               `json:"amount_final_cents"`
	AmountDelta        int64               `json:"amount_delta_cents"`
	AmountFunded       int64               `json:"amount_funded_cents"`
	RetainageBps       int64               `json:"retainage_bps"`
	RetainageHoldCents int64               `json:"retainage_hold_cents"`
}

// FinancialsFromModel projects the escrow-relevant booking fields.
func FinancialsFromModel(b *models.Booking) *BookingFinancials {
	if b == nil {
		return nil
	}
	return &BookingFinancials{
		BookingID:          b.ID,
		Status:             b.Status,
		TotalCents:         b.TotalCents,
		PlatformFeeCents:   b.PlatformFeeCents,
		AmountBudgeted:     b.AmountBudgetedCents,
		AmountDeposit:      b.AmountDepositCents,
		AmountFinal:        b.AmountFinalCents,
		AmountDelta:        b.AmountDeltaCents,
		AmountFunded:       b.AmountFundedCents,
		RetainageBps:       b.RetainageBps,
		RetainageHoldCents: b.RetainageHoldCents,
	}
}
