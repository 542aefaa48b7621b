package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/internal/ledger"
	"github.com/rmoralesdev/casaworks-backend/internal/payments"
	"github.com/rmoralesdev/casaworks-backend/internal/settings"
	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
	"github.com/rmoralesdev/casaworks-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
	UpdateSavedPaymentMethod(ctx context.Context, id uuid.UUID, paymentMethodID string) error
}

type eligibilityGate interface {
	EnsureEligible(ctx context.Context, providerID uuid.UUID) (*models.User, error)
}

type policySource interface {
	EscrowPolicy(ctx context.Context) (*settings.EscrowPolicy, error)
}

// ServiceParams groups dependencies for the escrow service.
type ServiceParams struct {
	Repo     Repository
	Events   ledger.Repository
	Users    userStore
	Gateway  payments.Gateway
	Payouts  eligibilityGate
	Settings policySource
	Tx       txRunner
	Logger   *logger.Logger
}

// Service drives the booking financial lifecycle. Every transition follows
// the same shape: load, authorize, validate status, run the gateway side
// effect, then apply a status-guarded write so a concurrent transition on the
// same booking cannot double-apply.
type Service struct {
	repo     Repository
	events   ledger.Repository
	users    userStore
	gateway  payments.Gateway
	payouts  eligibilityGate
	settings policySource
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds the escrow service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("escrow event repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout eligibility gate required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings source required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{
		repo:     params.Repo,
		events:   params.Events,
		users:    params.Users,
		gateway:  params.Gateway,
		payouts:  params.Payouts,
		settings: params.Settings,
		tx:       params.Tx,
		logg:     params.Logger,
	}, nil
}

// Respond lets the homeowner accept or decline a pending booking request.
func (s *Service) Respond(ctx context.Context, actor Actor, bookingID uuid.UUID, input RespondInput) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireBuyer(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusPending); err != nil {
		return nil, err
	}

	next := enums.BookingStatusAccepted
	if !input.Accept {
		next = enums.BookingStatusDeclined
	}
	if err := s.applyTransition(ctx, booking, map[string]any{"status": next}); err != nil {
		return nil, err
	}
	booking.Status = next
	return FinancialsFromModel(booking), nil
}

// PayDeposit charges the platform deposit and moves the booking to funded.
func (s *Service) PayDeposit(ctx context.Context, actor Actor, bookingID uuid.UUID, input PayDepositInput) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireBuyer(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusAccepted); err != nil {
		return nil, err
	}
	if input.PaymentMethodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_method_id is required")
	}

	policy, err := s.settings.EscrowPolicy(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve escrow policy")
	}
	depositCents, err := money.ApplyBps(booking.TotalCents, policy.DepositBps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute deposit")
	}

	buyer, err := s.users.FindByID(ctx, booking.BuyerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}
	customerID := ""
	if buyer.StripeCustomerID != nil {
		customerID = *buyer.StripeCustomerID
	}
	ensuredID, err := s.gateway.EnsureCustomer(ctx, buyer.ID, buyer.Email, customerID)
	if err != nil {
		return nil, err
	}
	if ensuredID != customerID {
		if err := s.users.UpdateStripeCustomerID(ctx, buyer.ID, ensuredID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist customer id")
		}
	}
	if input.SavePaymentMethod {
		if err := s.gateway.AttachPaymentMethod(ctx, ensuredID, input.PaymentMethodID); err != nil {
			return nil, err
		}
		// Off-session delta charges resolve the method from this column.
		if err := s.users.UpdateSavedPaymentMethod(ctx, buyer.ID, input.PaymentMethodID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist saved payment method")
		}
	}

	charge, err := s.gateway.Charge(ctx, payments.ChargeParams{
		BookingID:         booking.ID,
		Step:              payments.StepDeposit,
		AmountCents:       depositCents,
		CustomerID:        ensuredID,
		PaymentMethodID:   input.PaymentMethodID,
		SavePaymentMethod: input.SavePaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":                   enums.BookingStatusFunded,
		"amount_budgeted_cents":    booking.TotalCents,
		"amount_deposit_cents":     depositCents,
		"amount_funded_cents":      depositCents,
		"deposit_charge_id":        charge.ChargeID,
		"stripe_payment_intent_id": charge.PaymentIntentID,
		"homeowner_pm_saved":       input.SavePaymentMethod,
	}
	err = s.applyTransitionWithEvent(ctx, booking, updates, ledgerEvent{
		actor:    actor.UserID,
		kind:     enums.EscrowEventDeposit,
		amount:   depositCents,
		objectID: charge.ChargeID,
	})
	if err != nil {
		return nil, err
	}

	booking.Status = enums.BookingStatusFunded
	booking.AmountBudgetedCents = booking.TotalCents
	booking.AmountDepositCents = depositCents
	booking.AmountFundedCents = depositCents
	booking.DepositChargeID = &charge.ChargeID
	booking.StripePaymentIntentID = &charge.PaymentIntentID
	booking.HomeownerPmSaved = input.SavePaymentMethod
	s.logMoney(ctx, booking.ID, "deposit charged")
	return FinancialsFromModel(booking), nil
}

// StartWork marks a funded booking as underway. No money moves.
func (s *Service) StartWork(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireSeller(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusFunded); err != nil {
		return nil, err
	}

	if err := s.applyTransition(ctx, booking, map[string]any{"status": enums.BookingStatusInProgress}); err != nil {
		return nil, err
	}
	booking.Status = enums.BookingStatusInProgress
	return FinancialsFromModel(booking), nil
}

// ProposeFinal records the provider's final price. The proposal is bounded by
// the configured cap over the deposit unless the caller is an administrator.
func (s *Service) ProposeFinal(ctx context.Context, actor Actor, bookingID uuid.UUID, input ProposeFinalInput) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireSeller(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusFunded, enums.BookingStatusInProgress); err != nil {
		return nil, err
	}
	if input.FinalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "final amount must not be negative")
	}

	policy, err := s.settings.EscrowPolicy(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve escrow policy")
	}
	// Cap is expressed over the deposit: bps/10000 × deposit.
	maxCents := booking.AmountDepositCents * policy.FinalCapBps / money.BpsDenominator
	if input.FinalCents > maxCents && !actor.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "final amount exceeds the allowed increase over the deposit").
			WithDetails(map[string]int64{
				"final_cents":       input.FinalCents,
				"max_allowed_cents": maxCents,
			})
	}

	deltaCents := money.Delta(input.FinalCents, booking.AmountDepositCents)
	updates := map[string]any{
		"status":              enums.BookingStatusFinalProposed,
		"amount_final_cents":  input.FinalCents,
		"amount_delta_cents":  deltaCents,
		"final_proposal_note": input.Note,
	}
	if err := s.applyTransition(ctx, booking, updates); err != nil {
		return nil, err
	}

	booking.Status = enums.BookingStatusFinalProposed
	booking.AmountFinalCents = input.FinalCents
	booking.AmountDeltaCents = deltaCents
	booking.FinalProposalNote = input.Note
	return FinancialsFromModel(booking), nil
}

// ApproveFinal applies the homeowner's consent to the final price, charging
// or refunding the delta as needed.
func (s *Service) ApproveFinal(ctx context.Context, actor Actor, bookingID uuid.UUID, input ApproveFinalInput) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireBuyer(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusFinalProposed); err != nil {
		return nil, err
	}
	if !input.Agree {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "explicit agreement is required to approve the final amount")
	}

	delta := booking.AmountDeltaCents
	switch {
	case delta > 0:
		return s.approveWithCharge(ctx, actor, booking, input)
	case delta < 0:
		return s.approveWithRefund(ctx, actor, booking)
	default:
		if err := s.applyTransition(ctx, booking, map[string]any{"status": enums.BookingStatusFinalApproved}); err != nil {
			return nil, err
		}
		booking.Status = enums.BookingStatusFinalApproved
		return FinancialsFromModel(booking), nil
	}
}

func (s *Service) approveWithCharge(ctx context.Context, actor Actor, booking *models.Booking, input ApproveFinalInput) (*BookingFinancials, error) {
	if !booking.HomeownerPmSaved && input.PaymentMethodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "an additional charge is due and no payment method is on file").
			WithDetails(map[string]int64{"delta_cents": booking.AmountDeltaCents})
	}

	buyer, err := s.users.FindByID(ctx, booking.BuyerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}
	if buyer.StripeCustomerID == nil || *buyer.StripeCustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "buyer has no billing identity")
	}

	paymentMethodID := input.PaymentMethodID
	if paymentMethodID == "" {
		// Off-session charges need an explicit method; the deposit step
		// persisted it when the homeowner opted in.
		if buyer.StripePaymentMethodID == nil || *buyer.StripePaymentMethodID == "" {
			return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "saved payment method is no longer on file").
				WithDetails(map[string]int64{"delta_cents": booking.AmountDeltaCents})
		}
		paymentMethodID = *buyer.StripePaymentMethodID
	}

	delta := booking.AmountDeltaCents
	charge, err := s.gateway.Charge(ctx, payments.ChargeParams{
		BookingID:       booking.ID,
		Step:            payments.StepDeltaCharge,
		AmountCents:     delta,
		CustomerID:      *buyer.StripeCustomerID,
		PaymentMethodID: paymentMethodID,
		OffSession:      input.PaymentMethodID == "",
	})
	if err != nil {
		return nil, err
	}

	funded := booking.AmountFundedCents + delta
	updates := map[string]any{
		"status":                   enums.BookingStatusFinalApproved,
		"amount_funded_cents":      funded,
		"delta_charge_id":          charge.ChargeID,
		"stripe_payment_intent_id": charge.PaymentIntentID,
	}
	err = s.applyTransitionWithEvent(ctx, booking, updates, ledgerEvent{
		actor:    actor.UserID,
		kind:     enums.EscrowEventDeltaCharge,
		amount:   delta,
		objectID: charge.ChargeID,
	})
	if err != nil {
		return nil, err
	}

	booking.Status = enums.BookingStatusFinalApproved
	booking.AmountFundedCents = funded
	booking.DeltaChargeID = &charge.ChargeID
	booking.StripePaymentIntentID = &charge.PaymentIntentID
	s.logMoney(ctx, booking.ID, "delta charged")
	return FinancialsFromModel(booking), nil
}

func (s *Service) approveWithRefund(ctx context.Context, actor Actor, booking *models.Booking) (*BookingFinancials, error) {
	if booking.DepositChargeID == nil || *booking.DepositChargeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "booking has no deposit charge to refund against")
	}

	refundCents := money.Abs(booking.AmountDeltaCents)
	funded := booking.AmountFundedCents - refundCents
	if funded < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund would exceed the funded amount")
	}

	refundID, err := s.gateway.Refund(ctx, payments.RefundParams{
		BookingID:   booking.ID,
		Step:        payments.StepDeltaRefund,
		ChargeID:    *booking.DepositChargeID,
		AmountCents: refundCents,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":              enums.BookingStatusFinalApproved,
		"amount_funded_cents": funded,
	}
	err = s.applyTransitionWithEvent(ctx, booking, updates, ledgerEvent{
		actor:    actor.UserID,
		kind:     enums.EscrowEventDeltaRefund,
		amount:   refundCents,
		objectID: refundID,
	})
	if err != nil {
		return nil, err
	}

	booking.Status = enums.BookingStatusFinalApproved
	booking.AmountFundedCents = funded
	s.logMoney(ctx, booking.ID, "delta refunded")
	return FinancialsFromModel(booking), nil
}

// Settle pays the provider the funded amount net of the platform fee and any
// retainage. A non-zero retainage leaves the booking partially released.
func (s *Service) Settle(ctx context.Context, actor Actor, bookingID uuid.UUID, input SettleInput) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireBuyerOrAdmin(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusFinalApproved); err != nil {
		return nil, err
	}
	if err := money.ValidateBps(input.RetainageBps); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "retainage")
	}

	provider, err := s.payouts.EnsureEligible(ctx, booking.SellerUserID)
	if err != nil {
		return nil, err
	}

	policy, err := s.settings.EscrowPolicy(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve escrow policy")
	}
	feeCents, err := money.ApplyBps(booking.AmountFundedCents, policy.PlatformFeeBps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute platform fee")
	}
	retainageCents, err := money.ApplyBps(booking.AmountFundedCents, input.RetainageBps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute retainage")
	}
	payoutCents := booking.AmountFundedCents - feeCents - retainageCents
	if payoutCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee plus retainage exceeds the funded amount").
			WithDetails(map[string]int64{
				"funded_cents":    booking.AmountFundedCents,
				"fee_cents":       feeCents,
				"retainage_cents": retainageCents,
			})
	}

	transferID, err := s.gateway.Transfer(ctx, payments.TransferParams{
		BookingID:          booking.ID,
		Step:               payments.StepFinalPayout,
		AmountCents:        payoutCents,
		DestinationAccount: *provider.StripeConnectAccountID,
	})
	if err != nil {
		return nil, err
	}

	next := enums.BookingStatusSettled
	if retainageCents > 0 {
		next = enums.BookingStatusPartialReleased
	}
	updates := map[string]any{
		"status":               next,
		"platform_fee_cents":   feeCents,
		"retainage_bps":        input.RetainageBps,
		"retainage_hold_cents": retainageCents,
		"stripe_transfer_id":   transferID,
	}
	err = s.applyTransitionWithEvent(ctx, booking, updates, ledgerEvent{
		actor:    actor.UserID,
		kind:     enums.EscrowEventFinalPayout,
		amount:   payoutCents,
		objectID: transferID,
	})
	if err != nil {
		return nil, err
	}

	booking.Status = next
	booking.PlatformFeeCents = feeCents
	booking.RetainageBps = input.RetainageBps
	booking.RetainageHoldCents = retainageCents
	booking.StripeTransferID = &transferID
	s.logMoney(ctx, booking.ID, "settlement transferred")
	return FinancialsFromModel(booking), nil
}

// ReleaseRetainage transfers the withheld remainder to the provider.
func (s *Service) ReleaseRetainage(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireBuyerOrAdmin(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusPartialReleased); err != nil {
		return nil, err
	}
	if booking.RetainageHoldCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no retainage is held for this booking")
	}

	provider, err := s.payouts.EnsureEligible(ctx, booking.SellerUserID)
	if err != nil {
		return nil, err
	}

	transferID, err := s.gateway.Transfer(ctx, payments.TransferParams{
		BookingID:          booking.ID,
		Step:               payments.StepRetainageRelease,
		AmountCents:        booking.RetainageHoldCents,
		DestinationAccount: *provider.StripeConnectAccountID,
	})
	if err != nil {
		return nil, err
	}

	released := booking.RetainageHoldCents
	updates := map[string]any{
		"status":               enums.BookingStatusSettled,
		"retainage_hold_cents": int64(0),
		"stripe_transfer_id":   transferID,
	}
	err = s.applyTransitionWithEvent(ctx, booking, updates, ledgerEvent{
		actor:    actor.UserID,
		kind:     enums.EscrowEventRetainageRelease,
		amount:   released,
		objectID: transferID,
	})
	if err != nil {
		return nil, err
	}

	booking.Status = enums.BookingStatusSettled
	booking.RetainageHoldCents = 0
	booking.StripeTransferID = &transferID
	s.logMoney(ctx, booking.ID, "retainage released")
	return FinancialsFromModel(booking), nil
}

// CompleteAndPayout is the flat-fee path for bookings that never entered the
// deposit flow: the full charge already succeeded (status paid via webhook),
// so the remaining work is a single payout net of the platform fee.
func (s *Service) CompleteAndPayout(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingFinancials, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireBuyerOrAdmin(booking, actor); err != nil {
		return nil, err
	}
	if err := requireStatus(booking, enums.BookingStatusPaid); err != nil {
		return nil, err
	}
	if booking.StripePaymentIntentID == nil || *booking.StripePaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking has no confirmed payment to settle from")
	}

	provider, err := s.payouts.EnsureEligible(ctx, booking.SellerUserID)
	if err != nil {
		return nil, err
	}

	policy, err := s.settings.EscrowPolicy(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve escrow policy")
	}
	feeCents, err := money.ApplyBps(booking.TotalCents, policy.PlatformFeeBps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute platform fee")
	}
	payoutCents := booking.TotalCents - feeCents

	transferID, err := s.gateway.Transfer(ctx, payments.TransferParams{
		BookingID:          booking.ID,
		Step:               payments.StepFlatPayout,
		AmountCents:        payoutCents,
		DestinationAccount: *provider.StripeConnectAccountID,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":             enums.BookingStatusCompleted,
		"platform_fee_cents": feeCents,
		"stripe_transfer_id": transferID,
	}
	err = s.applyTransitionWithEvent(ctx, booking, updates, ledgerEvent{
		actor:    actor.UserID,
		kind:     enums.EscrowEventFlatPayout,
		amount:   payoutCents,
		objectID: transferID,
	})
	if err != nil {
		return nil, err
	}

	booking.Status = enums.BookingStatusCompleted
	booking.PlatformFeeCents = feeCents
	booking.StripeTransferID = &transferID
	s.logMoney(ctx, booking.ID, "flat payout transferred")
	return FinancialsFromModel(booking), nil
}

// Events lists the immutable money-movement history for a booking.
func (s *Service) Events(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]models.EscrowEvent, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipantOrAdmin(booking, actor); err != nil {
		return nil, err
	}
	return s.events.ListByBookingID(ctx, bookingID)
}

type ledgerEvent struct {
	actor    uuid.UUID
	kind     enums.EscrowEventType
	amount   int64
	objectID string
}

func (s *Service) load(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}
	return booking, nil
}

// applyTransition writes the guarded status update without a ledger row, for
// transitions that move no money.
func (s *Service) applyTransition(ctx context.Context, booking *models.Booking, updates map[string]any) error {
	err := s.repo.UpdateStatusGuarded(ctx, booking.ID, booking.Status, updates)
	return s.mapGuardError(err, booking)
}

// applyTransitionWithEvent writes the guarded update and the escrow event in
// one transaction so the ledger can never drift from the booking.
func (s *Service) applyTransitionWithEvent(ctx context.Context, booking *models.Booking, updates map[string]any, event ledgerEvent) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatusGuarded(ctx, booking.ID, booking.Status, updates); err != nil {
			return err
		}
		row := &models.EscrowEvent{
			BookingID:   booking.ID,
			ActorUserID: event.actor,
			Type:        event.kind,
			AmountCents: event.amount,
		}
		if event.objectID != "" {
			objectID := event.objectID
			row.StripeObjectID = &objectID
		}
		return s.events.WithTx(tx).Create(ctx, row)
	})
	return s.mapGuardError(err, booking)
}

func (s *Service) mapGuardError(err error, booking *models.Booking) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStaleStatus) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking status changed while processing").
			WithDetails(map[string]string{"expected_status": booking.Status.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply booking transition")
}

func (s *Service) logMoney(ctx context.Context, bookingID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithBookingID(ctx, bookingID.String())
	s.logg.Info(ctx, msg)
}

func requireBuyer(booking *models.Booking, actor Actor) error {
	if actor.UserID == booking.BuyerUserID || actor.IsAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the homeowner can perform this action")
}

func requireSeller(booking *models.Booking, actor Actor) error {
	if actor.UserID == booking.SellerUserID || actor.IsAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the provider can perform this action")
}

func requireBuyerOrAdmin(booking *models.Booking, actor Actor) error {
	if actor.UserID == booking.BuyerUserID || actor.IsAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the homeowner or an administrator can perform this action")
}

func requireParticipantOrAdmin(booking *models.Booking, actor Actor) error {
	if actor.UserID == booking.BuyerUserID || actor.UserID == booking.SellerUserID || actor.IsAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "caller is not a participant of this booking")
}

func requireStatus(booking *models.Booking, allowed ...enums.BookingStatus) error {
	for _, status := range allowed {
		if booking.Status == status {
			return nil
		}
	}
	required := make([]string, 0, len(allowed))
	for _, status := range allowed {
		required = append(required, status.String())
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is not in the required status").
		WithDetails(map[string]any{
			"current_status":    booking.Status.String(),
			"required_statuses": required,
		})
}
