package domain

import "time"

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// CanTransitionTo reports whether a booking may move from s to next.
// Cancelled and completed are terminal. Re-confirming a confirmed booking is
// allowed so a driver can accept a booking that was confirmed on creation.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled || next == BookingStatusCompleted
	}
	return false
}

// PaymentStatus represents the payment state of a booking.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking represents a passenger's reservation against a trip.
type Booking struct {
	ID            string
	UserID        string
	TripID        string
	PickupTime    string // Optional override
	Status        BookingStatus
	FareAmount    float64 // Frozen at booking time
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the booking still holds a seat.
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}
