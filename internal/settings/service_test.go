package settings

import (
	"context"
	"testing"

	"github.com/rmoralesdev/casaworks-backend/pkg/config"
)

type fakeRepo struct {
	values map[string]string
}

func (f *fakeRepo) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeRepo) Set(ctx context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func defaults() config.EscrowConfig {
	return config.EscrowConfig{
		DepositPercent:     10,
		PlatformFeePercent: 5,
		FinalCapBps:        12500,
	}
}

func TestEscrowPolicy_Defaults(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: &fakeRepo{values: map[string]string{}}, Defaults: defaults()})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	policy, err := svc.EscrowPolicy(context.Background())
	if err != nil {
		t.Fatalf("EscrowPolicy error: %v", err)
	}
	if policy.DepositBps != 1000 {
		t.Fatalf("expected 1000 bps deposit, got %d", policy.DepositBps)
	}
	if policy.PlatformFeeBps != 500 {
		t.Fatalf("expected 500 bps fee, got %d", policy.PlatformFeeBps)
	}
	if policy.FinalCapBps != 12500 {
		t.Fatalf("expected 12500 bps cap, got %d", policy.FinalCapBps)
	}
}

func TestEscrowPolicy_StoredOverrides(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{
		KeyDepositPercent:     "12.5",
		KeyPlatformFeePercent: "7",
	}}
	svc, err := NewService(ServiceParams{Repo: repo, Defaults: defaults()})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	policy, err := svc.EscrowPolicy(context.Background())
	if err != nil {
		t.Fatalf("EscrowPolicy error: %v", err)
	}
	if policy.DepositBps != 1250 {
		t.Fatalf("expected 1250 bps deposit, got %d", policy.DepositBps)
	}
	if policy.PlatformFeeBps != 700 {
		t.Fatalf("expected 700 bps fee, got %d", policy.PlatformFeeBps)
	}
}

func TestEscrowPolicy_RejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not a number", value: "ten"},
		{name: "sub basis point", value: "7.505"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{values: map[string]string{KeyDepositPercent: tc.value}}
			svc, err := NewService(ServiceParams{Repo: repo, Defaults: defaults()})
			if err != nil {
				t.Fatalf("NewService error: %v", err)
			}
			if _, err := svc.EscrowPolicy(context.Background()); err == nil {
				t.Fatalf("expected error for value %q", tc.value)
			}
		})
	}
}

func TestEscrowPolicy_RejectsOutOfRangeRates(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{KeyDepositPercent: "150"}}
	svc, err := NewService(ServiceParams{Repo: repo, Defaults: defaults()})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	if _, err := svc.EscrowPolicy(context.Background()); err == nil {
		t.Fatal("expected error for 150 percent deposit")
	}
}
