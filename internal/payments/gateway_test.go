package payments

import (
	"testing"

	"github.com/google/uuid"
)

func TestIdempotencyKeyIsStablePerStep(t *testing.T) {
	bookingID := uuid.New()

	first := IdempotencyKey(bookingID, StepDeposit)
	second := IdempotencyKey(bookingID, StepDeposit)
	if first != second {
		t.Fatalf("expected stable key, got %q vs %q", first, second)
	}

	other := IdempotencyKey(bookingID, StepDeltaCharge)
	if first == other {
		t.Fatalf("distinct steps must derive distinct keys, both %q", first)
	}

	otherBooking := IdempotencyKey(uuid.New(), StepDeposit)
	if first == otherBooking {
		t.Fatal("distinct bookings must derive distinct keys")
	}
}

func TestTransferGroup(t *testing.T) {
	bookingID := uuid.New()
	want := "booking_" + bookingID.String()
	if got := TransferGroup(bookingID); got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
}
