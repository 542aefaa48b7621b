package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// Booking is the central escrow entity. The homeowner is the financial buyer
// of the service; the provider is the seller. All amounts are integer cents.
type Booking struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID    uuid.UUID `gorm:"column:listing_id;type:uuid;not null"`
	BuyerUserID  uuid.UUID `gorm:"column:buyer_user_id;type:uuid;not null"`
	SellerUserID uuid.UUID `gorm:"column:seller_user_id;type:uuid;not null"`

	Status enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'pending'"`

	TotalCents       int64 `gorm:"column:total_cents;not null"`
	SubtotalCents    int64 `gorm:"column:subtotal_cents;not null"`
	PlatformFeeCents int64 `gorm:"column:platform_fee_cents;not null;default:0"`

	AmountBudgetedCents int64 `gorm:"column:amount_budgeted_cents;not null;default:0"`
	AmountDepositCents  int64 `gorm:"column:amount_deposit_cents;not null;default:0"`
	AmountFinalCents    int64 `gorm:"column:amount_final_cents;not null;default:0"`
	AmountDeltaCents    int64 `gorm:"column:amount_delta_cents;not null;default:0"`
	AmountFundedCents   int64 `gorm:"column:amount_funded_cents;not null;default:0"`

	RetainageBps       int64 `gorm:"column:retainage_bps;not null;default:0"`
	RetainageHoldCents int64 `gorm:"column:retainage_hold_cents;not null;default:0"`

	HomeownerPmSaved bool `gorm:"column:homeowner_pm_saved;not null;default:false"`

	DepositChargeID   *string `gorm:"column:deposit_charge_id"`
	DeltaChargeID     *string `gorm:"column:delta_charge_id"`
	FinalProposalNote *string `gorm:"column:final_proposal_note"`

	StripePaymentIntentID *string `gorm:"column:stripe_payment_intent_id"`
	StripeTransferID      *string `gorm:"column:stripe_transfer_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
