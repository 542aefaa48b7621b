package payouts

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/internal/payments"
	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
)

// UserStore is the subset of the users repository the payout flows need.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateConnectAccountID(ctx context.Context, id uuid.UUID, accountID string) error
	UpdatePayoutStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, requirements []byte) error
}

// ServiceParams groups dependencies for the payout service.
type ServiceParams struct {
	Users   UserStore
	Gateway payments.Gateway
	Logger  *logger.Logger
}

// Service manages provider onboarding and payout readiness.
type Service struct {
	users   UserStore
	gateway payments.Gateway
	logg    *logger.Logger
}

// NewService builds a payout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, errors.New("users store is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("payment gateway is required")
	}
	return &Service{users: params.Users, gateway: params.Gateway, logg: params.Logger}, nil
}

// OnboardResult carries the link the provider follows to complete onboarding.
type OnboardResult struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

// StatusResult reports the provider's current payout readiness.
type StatusResult struct {
	PayoutStatus enums.PayoutStatus `json:"payout_status"`
	Requirements []string           `json:"requirements,omitempty"`
}

// Onboard creates the provider's connected account on first call and returns
// a fresh onboarding link. Repeat calls reuse the existing account, so a
// provider who abandoned onboarding can resume it.
func (s *Service) Onboard(ctx context.Context, providerID uuid.UUID) (*OnboardResult, error) {
	provider, err := s.users.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "provider not found")
	}
	if provider.Role != enums.ActorRoleProvider {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only providers can onboard for payouts")
	}

	accountID := ""
	if provider.StripeConnectAccountID != nil {
		accountID = *provider.StripeConnectAccountID
	}
	if accountID == "" {
		accountID, err = s.gateway.CreateConnectedAccount(ctx, provider.ID, provider.Email)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdateConnectAccountID(ctx, provider.ID, accountID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist connected account id")
		}
		if err := s.users.UpdatePayoutStatus(ctx, provider.ID, enums.PayoutStatusPending, nil); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payout status")
		}
	}

	url, err := s.gateway.CreateOnboardingLink(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(ctx, "payout onboarding link issued")
	}
	return &OnboardResult{AccountID: accountID, OnboardingURL: url}, nil
}

// Status refreshes the provider's readiness from the gateway and persists
// the derived status so the eligibility gate sees current data.
func (s *Service) Status(ctx context.Context, providerID uuid.UUID) (*StatusResult, error) {
	provider, err := s.users.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "provider not found")
	}
	if provider.StripeConnectAccountID == nil || *provider.StripeConnectAccountID == "" {
		return &StatusResult{PayoutStatus: enums.PayoutStatusUnset}, nil
	}

	return s.refresh(ctx, provider)
}

// Apply persists the readiness derived from a gateway-pushed account state.
// The webhook reconciler calls this so pushed and pulled updates share one
// derivation.
func (s *Service) Apply(ctx context.Context, providerID uuid.UUID, status *payments.AccountStatus) (enums.PayoutStatus, error) {
	derived := Derive(status)
	requirements := marshalRequirements(status)
	if err := s.users.UpdatePayoutStatus(ctx, providerID, derived, requirements); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payout status")
	}
	return derived, nil
}

// EnsureEligible gates money movement toward a provider. A provider whose
// stored status is stale gets one refresh from the gateway before the gate
// decides.
func (s *Service) EnsureEligible(ctx context.Context, providerID uuid.UUID) (*models.User, error) {
	provider, err := s.users.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "provider not found")
	}
	if provider.StripeConnectAccountID == nil || *provider.StripeConnectAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodePayoutNotReady, "provider has not started payout onboarding").
			WithDetails(StatusResult{PayoutStatus: enums.PayoutStatusUnset})
	}
	if provider.PayoutStatus == enums.PayoutStatusReady {
		return provider, nil
	}

	result, err := s.refresh(ctx, provider)
	if err != nil {
		return nil, err
	}
	if result.PayoutStatus != enums.PayoutStatusReady {
		return nil, pkgerrors.New(pkgerrors.CodePayoutNotReady, "provider payout account is not ready").
			WithDetails(result)
	}
	provider.PayoutStatus = result.PayoutStatus
	return provider, nil
}

func (s *Service) refresh(ctx context.Context, provider *models.User) (*StatusResult, error) {
	status, err := s.gateway.GetAccountStatus(ctx, *provider.StripeConnectAccountID)
	if err != nil {
		return nil, err
	}

	derived := Derive(status)
	if err := s.users.UpdatePayoutStatus(ctx, provider.ID, derived, marshalRequirements(status)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payout status")
	}
	return &StatusResult{PayoutStatus: derived, Requirements: status.Requirements}, nil
}

func marshalRequirements(status *payments.AccountStatus) []byte {
	if status == nil || len(status.Requirements) == 0 {
		return nil
	}
	raw, err := json.Marshal(status.Requirements)
	if err != nil {
		return nil
	}
	return raw
}
