package payouts

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/api/middleware"
	"github.com/rmoralesdev/casaworks-backend/api/responses"
	internalpayouts "github.com/rmoralesdev/casaworks-backend/internal/payouts"
	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
)

// Service is the payout onboarding surface the handlers dispatch into.
type Service interface {
	Onboard(ctx context.Context, providerID uuid.UUID) (*internalpayouts.OnboardResult, error)
	Status(ctx context.Context, providerID uuid.UUID) (*internalpayouts.StatusResult, error)
}

// Onboard creates or resumes the caller's connected payout account and
// returns a fresh onboarding link.
func Onboard(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, ok := callerID(w, r, svc, logg)
		if !ok {
			return
		}

		result, err := svc.Onboard(r.Context(), providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Status reports the caller's current payout readiness.
func Status(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, ok := callerID(w, r, svc, logg)
		if !ok {
			return
		}

		result, err := svc.Status(r.Context(), providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func callerID(w http.ResponseWriter, r *http.Request, svc Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
		return uuid.Nil, false
	}

	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
		return uuid.Nil, false
	}
	return parsed, true
}
