package escrow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

func setupBookingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  buyer_user_id TEXT NOT NULL,
  seller_user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_cents INTEGER NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  platform_fee_cents INTEGER NOT NULL DEFAULT 0,
  amount_budgeted_cents INTEGER NOT NULL DEFAULT 0,
  amount_deposit_cents INTEGER NOT NULL DEFAULT 0,
  amount_final_cents INTEGER NOT NULL DEFAULT 0,
  amount_delta_cents INTEGER NOT NULL DEFAULT 0,
  amount_funded_cents INTEGER NOT NULL DEFAULT 0,
  retainage_bps INTEGER NOT NULL DEFAULT 0,
  retainage_hold_cents INTEGER NOT NULL DEFAULT 0,
  homeowner_pm_saved INTEGER NOT NULL DEFAULT 0,
  deposit_charge_id TEXT,
  delta_charge_id TEXT,
  final_proposal_note TEXT,
  stripe_payment_intent_id TEXT,
  stripe_transfer_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(bookings).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM bookings")
	})

	return db
}

func seedBooking(t *testing.T, db *gorm.DB, status enums.BookingStatus) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:                  uuid.New(),
		ListingID:           uuid.New(),
		BuyerUserID:         uuid.New(),
		SellerUserID:        uuid.New(),
		Status:              status,
		TotalCents:          100_000,
		SubtotalCents:       100_000,
		AmountBudgetedCents: 100_000,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func TestRepositoryFindByID(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedBooking(t, db, enums.BookingStatusPending)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, enums.BookingStatusPending, found.Status)
	assert.Equal(t, int64(100_000), found.TotalCents)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByPaymentIntentID(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedBooking(t, db, enums.BookingStatusFunded)
	intentID := "pi_test_123"
	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", seeded.ID).
		Update("stripe_payment_intent_id", intentID).Error)

	found, err := repo.FindByPaymentIntentID(ctx, intentID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByPaymentIntentID(ctx, "pi_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateStatusGuarded(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedBooking(t, db, enums.BookingStatusAccepted)

	err := repo.UpdateStatusGuarded(ctx, seeded.ID, enums.BookingStatusAccepted, map[string]any{
		"status":               enums.BookingStatusFunded,
		"amount_funded_cents":  int64(10_000),
		"amount_deposit_cents": int64(10_000),
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusFunded, found.Status)
	assert.Equal(t, int64(10_000), found.AmountFundedCents)
}

func TestRepositoryUpdateStatusGuardedStale(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedBooking(t, db, enums.BookingStatusFunded)

	err := repo.UpdateStatusGuarded(ctx, seeded.ID, enums.BookingStatusAccepted, map[string]any{
		"status": enums.BookingStatusFunded,
	})
	assert.ErrorIs(t, err, ErrStaleStatus)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusFunded, found.Status)
}

func TestRepositoryWithTx(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedBooking(t, db, enums.BookingStatusPending)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).UpdateStatusGuarded(ctx, seeded.ID, enums.BookingStatusPending, map[string]any{
			"status": enums.BookingStatusAccepted,
		})
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusAccepted, found.Status)
}
