package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	internalescrow "github.com/rmoralesdev/casaworks-backend/internal/escrow"
	internalpayouts "github.com/rmoralesdev/casaworks-backend/internal/payouts"
	pkgAuth "github.com/rmoralesdev/casaworks-backend/pkg/auth"
	"github.com/rmoralesdev/casaworks-backend/pkg/config"
	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	"github.com/rmoralesdev/casaworks-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubEscrowService struct{}

func (stubEscrowService) Respond(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.RespondInput) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) PayDeposit(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.PayDepositInput) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) StartWork(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) ProposeFinal(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.ProposeFinalInput) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) ApproveFinal(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.ApproveFinalInput) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) Settle(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID, input internalescrow.SettleInput) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) ReleaseRetainage(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) CompleteAndPayout(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) (*internalescrow.BookingFinancials, error) {
	return &internalescrow.BookingFinancials{BookingID: bookingID}, nil
}

func (stubEscrowService) Events(ctx context.Context, actor internalescrow.Actor, bookingID uuid.UUID) ([]models.EscrowEvent, error) {
	return []models.EscrowEvent{}, nil
}

type stubPayoutsService struct{}

func (stubPayoutsService) Onboard(ctx context.Context, providerID uuid.UUID) (*internalpayouts.OnboardResult, error) {
	return &internalpayouts.OnboardResult{AccountID: "acct_1", OnboardingURL: "https://connect.example/onboard"}, nil
}

func (stubPayoutsService) Status(ctx context.Context, providerID uuid.UUID) (*internalpayouts.StatusResult, error) {
	return &internalpayouts.StatusResult{PayoutStatus: enums.PayoutStatusReady}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "casaworks", ExpirationMinutes: 60},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		&redis.Client{},
		prometheus.NewRegistry(),
		stubEscrowService{},
		stubPayoutsService{},
		nil,
		nil,
		nil,
	)
}

func mintToken(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Casaworks-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Casaworks-Env"))
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestEscrowRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	paths := []string{
		"/api/v1/bookings/" + uuid.NewString() + "/respond",
		"/api/v1/escrow/" + uuid.NewString() + "/deposit",
		"/api/v1/escrow/" + uuid.NewString() + "/settle",
		"/api/v1/payouts/onboard",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", path, rec.Code)
		}
	}
}

func TestBookingEventsRouteWithToken(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+uuid.NewString()+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleHomeowner))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestPayoutStatusRequiresProviderRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payouts/status", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleHomeowner))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for homeowner got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/payouts/status", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleProvider))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for provider got %d body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data internalpayouts.StatusResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PayoutStatus != enums.PayoutStatusReady {
		t.Fatalf("expected ready got %s", envelope.Data.PayoutStatus)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
