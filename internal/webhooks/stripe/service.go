package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/internal/escrow"
	"github.com/rmoralesdev/casaworks-backend/internal/ledger"
	"github.com/rmoralesdev/casaworks-backend/internal/payments"
	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
)

type userFinder interface {
	FindByConnectAccountID(ctx context.Context, accountID string) (*models.User, error)
}

type payoutApplier interface {
	Apply(ctx context.Context, providerID uuid.UUID, status *payments.AccountStatus) (enums.PayoutStatus, error)
}

type ServiceParams struct {
	Bookings escrow.Repository
	Ledger   ledger.Service
	Users    userFinder
	Payouts  payoutApplier
	Logger   *logger.Logger
}

// Service reconciles asynchronous gateway events into booking and user
// state. It races against the synchronous escrow paths for the same booking;
// the status-guarded writes make whichever side arrives second a no-op.
type Service struct {
	bookings escrow.Repository
	ledger   ledger.Service
	users    userFinder
	payouts  payoutApplier
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Bookings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "booking repo required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user finder required")
	}
	if params.Payouts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payout applier required")
	}
	return &Service{
		bookings: params.Bookings,
		ledger:   params.Ledger,
		users:    params.Users,
		payouts:  params.Payouts,
		logg:     params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.handlePaymentIntent(ctx, event, enums.BookingStatusPaid)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.handlePaymentIntent(ctx, event, enums.BookingStatusCanceled)
	case stripe.EventTypeChargeRefunded:
		return s.handleChargeRefunded(ctx, event)
	case stripe.EventTypeAccountUpdated:
		return s.handleAccountUpdated(ctx, event)
	default:
		return nil
	}
}

// handlePaymentIntent settles the flat-fee flow: a confirmed intent moves the
// booking to paid, a failed one to canceled. Deposit-flow bookings carry the
// same metadata but have already advanced past the guarded pre-states, so
// their events resolve to no-ops here.
func (s *Service) handlePaymentIntent(ctx context.Context, event *stripe.Event, target enums.BookingStatus) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}

	bookingID, ok := bookingIDFromMetadata(intent.Metadata)
	if !ok {
		s.warn(ctx, "payment intent event without booking metadata")
		return nil
	}

	if target == enums.BookingStatusPaid && intent.Metadata["type"] == string(payments.StepDeposit) {
		return s.reconcileDeposit(ctx, &intent, bookingID)
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.warn(ctx, "payment intent event for unknown booking")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}

	switch booking.Status {
	case enums.BookingStatusPending, enums.BookingStatusAccepted:
	default:
		// Already moved by the sync path or an earlier delivery.
		return nil
	}

	err = s.bookings.UpdateStatusGuarded(ctx, booking.ID, booking.Status, map[string]any{
		"status":                   target,
		"stripe_payment_intent_id": intent.ID,
	})
	if errors.Is(err, escrow.ErrStaleStatus) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply payment intent transition")
	}
	s.info(ctx, booking.ID, "booking reconciled from payment intent event")
	return nil
}

// reconcileDeposit finishes a deposit confirmation that resolved
// asynchronously: accepted moves to funded with the intent amount, and the
// deposit ledger row is appended. The sync path writes both inside one
// transaction; here a redelivery can find the transition applied but the
// ledger row missing, so the row is repaired independently of the guard.
func (s *Service) reconcileDeposit(ctx context.Context, intent *stripe.PaymentIntent, bookingID uuid.UUID) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.warn(ctx, "deposit intent event for unknown booking")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}

	switch booking.Status {
	case enums.BookingStatusAccepted:
		err = s.bookings.UpdateStatusGuarded(ctx, booking.ID, enums.BookingStatusAccepted, map[string]any{
			"status":                   enums.BookingStatusFunded,
			"amount_deposit_cents":     intent.Amount,
			"amount_funded_cents":      intent.Amount,
			"stripe_payment_intent_id": intent.ID,
		})
		if err != nil && !errors.Is(err, escrow.ErrStaleStatus) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply deposit transition")
		}
		if err == nil {
			s.info(ctx, booking.ID, "booking funded from deposit intent event")
		}
	case enums.BookingStatusFunded:
	default:
		// Past funded; the sync path owns the ledger from here.
		return nil
	}

	recorded, err := s.ledger.HasEvent(ctx, bookingID, enums.EscrowEventDeposit)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check deposit ledger row")
	}
	if recorded {
		return nil
	}
	if _, err := s.ledger.RecordEvent(ctx, ledger.RecordEventInput{
		BookingID:      bookingID,
		ActorUserID:    booking.BuyerUserID,
		Type:           enums.EscrowEventDeposit,
		AmountCents:    intent.Amount,
		StripeObjectID: &intent.ID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record deposit ledger row")
	}
	return nil
}

// handleChargeRefunded cancels the booking whose stored payment intent
// matches the refunded charge. Only the flat-fee pre-settlement states may
// cancel here: once a booking is funded, refunds against its charges are
// platform-issued (delta refunds, settlement remainders) and the booking has
// already been transitioned by the path that created them. Replayed
// deliveries find the booking already canceled and no-op.
func (s *Service) handleChargeRefunded(ctx context.Context, event *stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode charge event")
	}
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		s.warn(ctx, "refunded charge without payment intent reference")
		return nil
	}

	booking, err := s.bookings.FindByPaymentIntentID(ctx, charge.PaymentIntent.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.warn(ctx, "refunded charge matches no booking")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locate booking by payment intent")
	}

	switch booking.Status {
	case enums.BookingStatusPending, enums.BookingStatusAccepted, enums.BookingStatusPaid:
	default:
		return nil
	}

	err = s.bookings.UpdateStatusGuarded(ctx, booking.ID, booking.Status, map[string]any{
		"status": enums.BookingStatusCanceled,
	})
	if errors.Is(err, escrow.ErrStaleStatus) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel refunded booking")
	}
	s.info(ctx, booking.ID, "booking canceled after charge refund")
	return nil
}

// handleAccountUpdated refreshes a provider's payout readiness from the
// pushed account state, through the same derivation as the status endpoint.
func (s *Service) handleAccountUpdated(ctx context.Context, event *stripe.Event) error {
	var account stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode account event")
	}
	if account.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "account event without id")
	}

	provider, err := s.users.FindByConnectAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.warn(ctx, "account event for unknown provider")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locate provider by account")
	}

	status := &payments.AccountStatus{
		AccountID:      account.ID,
		ChargesEnabled: account.ChargesEnabled,
		PayoutsEnabled: account.PayoutsEnabled,
	}
	if account.Requirements != nil {
		status.DisabledReason = string(account.Requirements.DisabledReason)
		status.Requirements = append(status.Requirements, account.Requirements.CurrentlyDue...)
	}

	if _, err := s.payouts.Apply(ctx, provider.ID, status); err != nil {
		return err
	}
	return nil
}

func bookingIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw, ok := metadata["booking_id"]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}

func (s *Service) info(ctx context.Context, bookingID uuid.UUID, msg string) {
	if s.logg != nil {
		s.logg.Info(s.logg.WithBookingID(ctx, bookingID.String()), msg)
	}
}
