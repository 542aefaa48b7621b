package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
)

// Service defines operations that record escrow events.
type Service interface {
	RecordEvent(ctx context.Context, input RecordEventInput) (*models.EscrowEvent, error)
	HasEvent(ctx context.Context, bookingID uuid.UUID, eventType enums.EscrowEventType) (bool, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.EscrowEvent, error)
}

type service struct {
	repo Repository
}

// RecordEventInput captures the immutable data an escrow event requires.
// AmountCents is always positive; the event type carries the direction.
type RecordEventInput struct {
	BookingID      uuid.UUID             `json:"booking_id"`
	ActorUserID    uuid.UUID             `json:"actor_user_id"`
	Type           enums.EscrowEventType `json:"type"`
	AmountCents    int64                 `json:"amount_cents"`
	StripeObjectID *string               `json:"stripe_object_id"`
	Metadata       json.RawMessage       `json:"metadata"`
}

// NewService wires an escrow ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordEvent(ctx context.Context, input RecordEventInput) (*models.EscrowEvent, error) {
	if input.BookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, fmt.Errorf("actor user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid escrow event type %q", input.Type)
	}
	if input.AmountCents < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}

	event := &models.EscrowEvent{
		BookingID:      input.BookingID,
		ActorUserID:    input.ActorUserID,
		Type:           input.Type,
		AmountCents:    input.AmountCents,
		StripeObjectID: input.StripeObjectID,
		Metadata:       input.Metadata,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) HasEvent(ctx context.Context, bookingID uuid.UUID, eventType enums.EscrowEventType) (bool, error) {
	if bookingID == uuid.Nil {
		return false, fmt.Errorf("booking id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid escrow event type %q", eventType)
	}
	return s.repo.ExistsByType(ctx, bookingID, eventType)
}

func (s *service) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.EscrowEvent, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	return s.repo.ListByBookingID(ctx, bookingID)
}
