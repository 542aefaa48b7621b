package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// Repository exposes the user persistence operations the escrow flows need.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByConnectAccountID locates a provider by their connected account id.
func (r *Repository) FindByConnectAccountID(ctx context.Context, accountID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("stripe_connect_account_id = ?", accountID).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateStripeCustomerID records the homeowner's billing customer id.
func (r *Repository) UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("stripe_customer_id", customerID).Error
}

// UpdateSavedPaymentMethod records the payment method the homeowner agreed
// to keep on file for off-session charges.
func (r *Repository) UpdateSavedPaymentMethod(ctx context.Context, id uuid.UUID, paymentMethodID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("stripe_payment_method_id", paymentMethodID).Error
}

// UpdateConnectAccountID records the provider's connected account id.
func (r *Repository) UpdateConnectAccountID(ctx context.Context, id uuid.UUID, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("stripe_connect_account_id", accountID).Error
}

// UpdatePayoutStatus overwrites the derived payout readiness and the raw
// requirements snapshot that produced it.
func (r *Repository) UpdatePayoutStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, requirements []byte) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"payout_status":       status,
			"stripe_requirements": requirements,
		}).Error
}
