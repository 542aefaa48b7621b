package enums

import "fmt"

// BookingStatus tracks the financial lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "pending"
	BookingStatusAccepted        BookingStatus = "accepted"
	BookingStatusDeclined        BookingStatus = "declined"
	BookingStatusCanceled        BookingStatus = "canceled"
	BookingStatusFunded          BookingStatus = "funded"
	BookingStatusInProgress      BookingStatus = "in_progress"
	BookingStatusFinalProposed   BookingStatus = "final_proposed"
	BookingStatusFinalApproved   BookingStatus = "final_approved"
	BookingStatusPartialReleased BookingStatus = "partial_released"
	BookingStatusSettled         BookingStatus = "settled"
	BookingStatusPaid            BookingStatus = "paid"
	BookingStatusCompleted       BookingStatus = "completed"
	BookingStatusDisputed        BookingStatus = "disputed"
	BookingStatusNoShow          BookingStatus = "no_show"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusDeclined,
	BookingStatusCanceled,
	BookingStatusFunded,
	BookingStatusInProgress,
	BookingStatusFinalProposed,
	BookingStatusFinalApproved,
	BookingStatusPartialReleased,
	BookingStatusSettled,
	BookingStatusPaid,
	BookingStatusCompleted,
	BookingStatusDisputed,
	BookingStatusNoShow,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further escrow transition can leave this status.
func (b BookingStatus) IsTerminal() bool {
	switch b {
	case BookingStatusDeclined, BookingStatusCanceled, BookingStatusSettled,
		BookingStatusCompleted, BookingStatusPaid, BookingStatusNoShow:
		return true
	default:
		return false
	}
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
