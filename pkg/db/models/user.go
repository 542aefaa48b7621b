package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// User carries the escrow-relevant identity fields. Profile management and
// authentication live in a separate service; this table only tracks the
// billing and payout identities the escrow core needs.
type User struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email string    `gorm:"type:text;not null;uniqueIndex"`

	Role enums.ActorRole `gorm:"column:role;type:actor_role;not null;default:'homeowner'"`

	StripeCustomerID       *string `gorm:"column:stripe_customer_id"`
	StripePaymentMethodID  *string `gorm:"column:stripe_payment_method_id"`
	StripeConnectAccountID *string `gorm:"column:stripe_connect_account_id"`

	PayoutStatus       enums.PayoutStatus `gorm:"column:payout_status;type:payout_status;not null;default:'unset'"`
	StripeRequirements json.RawMessage    `gorm:"column:stripe_requirements;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsAdmin reports whether the user holds the platform admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == enums.ActorRoleAdmin
}
