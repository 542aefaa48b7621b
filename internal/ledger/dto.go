package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// EventDTO is the API projection of one escrow ledger row.
type EventDTO struct {
	ID             uuid.UUID             `json:"id"`
	BookingID      uuid.UUID             `json:"booking_id"`
	ActorUserID    uuid.UUID             `json:"actor_user_id"`
	Type           enums.EscrowEventType `json:"type"`
	AmountCents    int64                 `json:"amount_cents"`
	StripeObjectID *string               `json:"stripe_object_id,omitempty"`
	Metadata       json.RawMessage       `json:"metadata,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// FromModel maps a stored escrow event into its DTO.
func FromModel(event *models.EscrowEvent) *EventDTO {
	if event == nil {
		return nil
	}
	return &EventDTO{
		ID:             event.ID,
		BookingID:      event.BookingID,
		ActorUserID:    event.ActorUserID,
		Type:           event.Type,
		AmountCents:    event.AmountCents,
		StripeObjectID: event.StripeObjectID,
		Metadata:       event.Metadata,
		CreatedAt:      event.CreatedAt,
	}
}

// FromModels maps a slice of stored escrow events into DTOs.
func FromModels(events []models.EscrowEvent) []EventDTO {
	out := make([]EventDTO, 0, len(events))
	for i := range events {
		out = append(out, *FromModel(&events[i]))
	}
	return out
}
