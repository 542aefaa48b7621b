package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// Repository manages persistence for escrow events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.EscrowEvent) error
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.EscrowEvent, error)
	ExistsByType(ctx context.Context, bookingID uuid.UUID, eventType enums.EscrowEventType) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an escrow event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.EscrowEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.EscrowEvent, error) {
	var events []models.EscrowEvent
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ExistsByType(ctx context.Context, bookingID uuid.UUID, eventType enums.EscrowEventType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.EscrowEvent{}).
		Where("booking_id = ? AND type = ?", bookingID, eventType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
