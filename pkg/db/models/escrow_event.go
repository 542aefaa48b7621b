package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// EscrowEvent records an immutable money movement tied to a booking. Rows are
// append-only; the Booking keeps only the latest gateway ids, this table keeps
// the full history.
type EscrowEvent struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID      uuid.UUID             `gorm:"column:booking_id;type:uuid;not null;index"`
	ActorUserID    uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null"`
	Type           enums.EscrowEventType `gorm:"column:type;type:escrow_event_type;not null"`
	AmountCents    int64                 `gorm:"column:amount_cents;not null"`
	StripeObjectID *string               `gorm:"column:stripe_object_id"`
	Metadata       json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
