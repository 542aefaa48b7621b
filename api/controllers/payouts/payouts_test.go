package payouts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/api/middleware"
	internalpayouts "github.com/rmoralesdev/casaworks-backend/internal/payouts"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
)

type stubPayoutsService struct {
	onboard func(ctx context.Context, providerID uuid.UUID) (*internalpayouts.OnboardResult, error)
	status  func(ctx context.Context, providerID uuid.UUID) (*internalpayouts.StatusResult, error)
}

func (s *stubPayoutsService) Onboard(ctx context.Context, providerID uuid.UUID) (*internalpayouts.OnboardResult, error) {
	if s.onboard != nil {
		return s.onboard(ctx, providerID)
	}
	return &internalpayouts.OnboardResult{}, nil
}

func (s *stubPayoutsService) Status(ctx context.Context, providerID uuid.UUID) (*internalpayouts.StatusResult, error) {
	if s.status != nil {
		return s.status(ctx, providerID)
	}
	return &internalpayouts.StatusResult{PayoutStatus: enums.PayoutStatusUnset}, nil
}

func authedRequest(method string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, "/", nil)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestOnboardReturnsLink(t *testing.T) {
	providerID := uuid.New()
	svc := &stubPayoutsService{
		onboard: func(ctx context.Context, id uuid.UUID) (*internalpayouts.OnboardResult, error) {
			if id != providerID {
				t.Fatalf("expected provider %s got %s", providerID, id)
			}
			return &internalpayouts.OnboardResult{AccountID: "acct_1", OnboardingURL: "https://connect.example/onboard"}, nil
		},
	}

	rec := httptest.NewRecorder()
	Onboard(svc, nil)(rec, authedRequest(http.MethodPost, providerID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data internalpayouts.OnboardResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OnboardingURL == "" {
		t.Fatal("expected onboarding url")
	}
}

func TestOnboardRequiresUserContext(t *testing.T) {
	rec := httptest.NewRecorder()
	Onboard(&stubPayoutsService{}, nil)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestOnboardSurfacesForbidden(t *testing.T) {
	svc := &stubPayoutsService{
		onboard: func(ctx context.Context, id uuid.UUID) (*internalpayouts.OnboardResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only providers can onboard for payouts")
		},
	}

	rec := httptest.NewRecorder()
	Onboard(svc, nil)(rec, authedRequest(http.MethodPost, uuid.New()))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestStatusReportsReadiness(t *testing.T) {
	svc := &stubPayoutsService{
		status: func(ctx context.Context, id uuid.UUID) (*internalpayouts.StatusResult, error) {
			return &internalpayouts.StatusResult{
				PayoutStatus: enums.PayoutStatusRestricted,
				Requirements: []string{"individual.id_number"},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	Status(svc, nil)(rec, authedRequest(http.MethodGet, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data internalpayouts.StatusResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PayoutStatus != enums.PayoutStatusRestricted {
		t.Fatalf("expected restricted got %s", envelope.Data.PayoutStatus)
	}
	if len(envelope.Data.Requirements) != 1 {
		t.Fatalf("expected requirements got %v", envelope.Data.Requirements)
	}
}
