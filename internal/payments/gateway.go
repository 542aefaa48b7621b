package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Step names the escrow step a gateway mutation belongs to. Steps key both
// the idempotency key and the metadata type tag, so a retried request can
// never double-apply a money movement.
type Step string

const (
	StepDeposit          Step = "deposit"
	StepDeltaCharge      Step = "delta_charge"
	StepDeltaRefund      Step = "delta_refund"
	StepFinalPayout      Step = "final_payout"
	StepRetainageRelease Step = "retainage_release"
	StepFlatPayout       Step = "flat_payout"
)

// ChargeParams describes a confirmed payment-intent charge.
type ChargeParams struct {
	BookingID         uuid.UUID
	Step              Step
	AmountCents       int64
	CustomerID        string
	PaymentMethodID   string
	SavePaymentMethod bool
	OffSession        bool
}

// ChargeResult carries the gateway identifiers the booking record keeps.
type ChargeResult struct {
	PaymentIntentID string
	ChargeID        string
}

// RefundParams describes a partial or full refund against a prior charge.
type RefundParams struct {
	BookingID   uuid.UUID
	Step        Step
	ChargeID    string
	AmountCents int64
}

// TransferParams describes a payout to a provider's connected account.
type TransferParams struct {
	BookingID          uuid.UUID
	Step               Step
	AmountCents        int64
	DestinationAccount string
}

// AccountStatus exposes the raw capability flags of a connected account.
type AccountStatus struct {
	AccountID      string
	ChargesEnabled bool
	PayoutsEnabled bool
	DisabledReason string
	Requirements   []string
}

// Gateway is the only surface allowed to talk to the payment processor.
// Every mutation is tagged with booking metadata and an idempotency key
// derived from (bookingID, step).
type Gateway interface {
	EnsureCustomer(ctx context.Context, userID uuid.UUID, email, existingCustomerID string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error)
	Refund(ctx context.Context, params RefundParams) (string, error)
	Transfer(ctx context.Context, params TransferParams) (string, error)
	CreateConnectedAccount(ctx context.Context, userID uuid.UUID, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
}

// IdempotencyKey derives the stable per-(booking, step) key passed to the
// gateway so that an ambiguous timeout can be retried without double-charging.
func IdempotencyKey(bookingID uuid.UUID, step Step) string {
	return fmt.Sprintf("booking:%s:%s", bookingID, step)
}

// TransferGroup correlates every charge, refund, and transfer belonging to
// one booking's financial lifecycle on the gateway side.
func TransferGroup(bookingID uuid.UUID) string {
	return fmt.Sprintf("booking_%s", bookingID)
}
