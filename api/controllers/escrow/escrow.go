package escrow

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/api/middleware"
	"github.com/rmoralesdev/casaworks-backend/api/responses"
	"github.com/rmoralesdev/casaworks-backend/api/validators"
	internalescrow "github.com/rmoralesdev/casaworks-backend/internal/escrow"
	"github.com/rmoralesdev/casaworks-backend/internal/ledger"
	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
)

// Service is the escrow lifecycle surface the handlers dispatch into.
type Service interface {
	Respond(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.RespondInput) (*internalescrow.BookingFinancials, error)
	PayDeposit(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.PayDepositInput) (*internalescrow.BookingFinancials, error)
	StartWork(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) (*internalescrow.BookingFinancials, error)
	ProposeFinal(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.ProposeFinalInput) (*internalescrow.BookingFinancials, error)
	ApproveFinal(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.ApproveFinalInput) (*internalescrow.BookingFinancials, error)
	Settle(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.SettleInput) (*internalescrow.BookingFinancials, error)
	ReleaseRetainage(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) (*internalescrow.BookingFinancials, error)
	CompleteAndPayout(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) (*internalescrow.BookingFinancials, error)
	Events(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) ([]models.EscrowEvent, error)
}

// Respond lets the homeowner accept or decline a pending booking request.
func Respond(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		var payload internalescrow.RespondInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Respond(r.Context(), actor, bookingID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PayDeposit charges the deposit and funds the booking.
func PayDeposit(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		var payload internalescrow.PayDepositInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PayDeposit(r.Context(), actor, bookingID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// StartWork marks a funded booking as underway.
func StartWork(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		result, err := svc.StartWork(r.Context(), actor, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProposeFinal records the provider's final amount proposal.
func ProposeFinal(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		var payload internalescrow.ProposeFinalInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ProposeFinal(r.Context(), actor, bookingID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ApproveFinal applies the homeowner's consent and settles the delta.
func ApproveFinal(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		var payload internalescrow.ApproveFinalInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ApproveFinal(r.Context(), actor, bookingID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Settle pays the provider out of the funded amount.
func Settle(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		var payload internalescrow.SettleInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Settle(r.Context(), actor, bookingID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReleaseRetainage transfers the withheld remainder to the provider.
func ReleaseRetainage(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		result, err := svc.ReleaseRetainage(r.Context(), actor, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Complete runs the flat-fee payout for a paid booking.
func Complete(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		result, err := svc.CompleteAndPayout(r.Context(), actor, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Events lists the money-movement history for a booking.
func Events(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, bookingID, ok := dispatchContext(w, r, svc, logg)
		if !ok {
			return
		}

		events, err := svc.Events(r.Context(), actor, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.FromModels(events))
	}
}

func dispatchContext(w http.ResponseWriter, r *http.Request, svc Service, logg *logger.Logger) (internalescrow.Actor, uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
		return internalescrow.Actor{}, uuid.Nil, false
	}

	actor, err := actorFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return internalescrow.Actor{}, uuid.Nil, false
	}

	bookingID, err := parseBookingID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return internalescrow.Actor{}, uuid.Nil, false
	}

	return actor, bookingID, true
}

func actorFromContext(r *http.Request) (internalescrow.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return internalescrow.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return internalescrow.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role := middleware.RoleFromContext(r.Context())
	return internalescrow.Actor{
		UserID:  parsed,
		IsAdmin: role == string(enums.ActorRoleAdmin),
	}, nil
}

func parseBookingID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "bookingId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id")
	}
	return id, nil
}
