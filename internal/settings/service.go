package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rmoralesdev/casaworks-backend/pkg/config"
	"github.com/rmoralesdev/casaworks-backend/pkg/money"
)

// Setting keys recognized by the escrow policy. Values are decimal percent
// strings ("10", "7.5") so an operator can tune them without a deploy.
const (
	KeyDepositPercent     = "escrow.deposit_percent"
	KeyPlatformFeePercent = "escrow.platform_fee_percent"
)

// EscrowPolicy is the resolved set of platform parameters the escrow state
// machine prices with. All rates are basis points.
type EscrowPolicy struct {
	DepositBps     int64
	PlatformFeeBps int64
	FinalCapBps    int64
}

// ServiceParams groups dependencies for the settings service.
type ServiceParams struct {
	Repo     Repository
	Defaults config.EscrowConfig
}

// Service resolves the escrow policy from the settings table, falling back
// to the configured defaults when no row exists.
type Service struct {
	repo     Repository
	defaults config.EscrowConfig
}

// NewService builds a settings service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("settings repository required")
	}
	return &Service{repo: params.Repo, defaults: params.Defaults}, nil
}

// EscrowPolicy resolves the current policy. A malformed stored value is an
// error rather than a silent fallback; money math never runs on a guess.
func (s *Service) EscrowPolicy(ctx context.Context) (*EscrowPolicy, error) {
	depositBps, err := s.resolveBps(ctx, KeyDepositPercent, money.PercentToBps(s.defaults.DepositPercent))
	if err != nil {
		return nil, err
	}
	feeBps, err := s.resolveBps(ctx, KeyPlatformFeePercent, money.PercentToBps(s.defaults.PlatformFeePercent))
	if err != nil {
		return nil, err
	}

	policy := &EscrowPolicy{
		DepositBps:     depositBps,
		PlatformFeeBps: feeBps,
		FinalCapBps:    s.defaults.FinalCapBps,
	}
	if err := money.ValidateBps(policy.DepositBps); err != nil {
		return nil, fmt.Errorf("deposit rate: %w", err)
	}
	if err := money.ValidateBps(policy.PlatformFeeBps); err != nil {
		return nil, fmt.Errorf("platform fee rate: %w", err)
	}
	return policy, nil
}

func (s *Service) resolveBps(ctx context.Context, key string, fallback int64) (int64, error) {
	value, found, err := s.repo.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load setting %s: %w", key, err)
	}
	if !found {
		return fallback, nil
	}
	return parsePercentToBps(key, value)
}

// parsePercentToBps converts a decimal percent string into basis points.
// "7.5" becomes 750. Anything that does not land on a whole basis point is
// rejected so stored policy always round-trips exactly.
func parsePercentToBps(key, value string) (int64, error) {
	percent, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("setting %s: invalid percent %q: %w", key, value, err)
	}
	bps := percent.Mul(decimal.NewFromInt(100))
	if !bps.IsInteger() {
		return 0, fmt.Errorf("setting %s: percent %q is finer than a basis point", key, value)
	}
	return bps.IntPart(), nil
}
