package service

import "errors"

var (
	// ErrValidation is the parent of every malformed-input error. Wrap it
	// with details using fmt.Errorf("%w: ...", ErrValidation).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrTripNotFound is returned when a trip does not exist.
	ErrTripNotFound = errors.New("trip not found")

	// ErrDriverNotFound is returned when no identity source knows the driver.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrForbidden is returned when a booking does not belong to the
	// requesting user, or a trip does not belong to the requesting driver.
	ErrForbidden = errors.New("forbidden")

	// ErrSeatsUnavailable is returned when a trip has no seats left.
	ErrSeatsUnavailable = errors.New("no seats available")

	// ErrTripNotBookable is returned when booking a completed or cancelled trip.
	ErrTripNotBookable = errors.New("trip is not open for booking")

	// ErrDuplicateBooking is returned when the user already holds an active
	// booking on the trip.
	ErrDuplicateBooking = errors.New("trip already booked by this user")

	// ErrBookingConflict is returned when another booking for the same trip
	// is in flight. The caller may retry.
	ErrBookingConflict = errors.New("booking conflict, please retry")

	// ErrInvalidTransition is returned when a booking or trip cannot move to
	// the requested status from its current one.
	ErrInvalidTransition = errors.New("invalid status transition")
)
