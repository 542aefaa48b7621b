package escrow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// ErrStaleStatus reports that a guarded status update matched no row: the
// booking moved out of the expected status between read and write.
var ErrStaleStatus = errors.New("booking status changed concurrently")

// Repository defines persistence operations for bookings in the escrow flow.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error)
	// UpdateStatusGuarded applies updates only while the booking still sits in
	// the expected status. The caller includes the new status in updates.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected enums.BookingStatus, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", intentID).
		First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected enums.BookingStatus, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
