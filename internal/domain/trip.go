package domain

import (
	"strings"
	"time"
)

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusAvailable  TripStatus = "available"
	TripStatusInProgress TripStatus = "in-progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// RideType represents how a trip's seats are sold.
type RideType string

const (
	RideTypePrivate   RideType = "private"
	RideTypePooling   RideType = "pooling"
	RideTypeWomenOnly RideType = "women-only"

	// RideTypeAll is the search sentinel that disables ride type filtering.
	RideTypeAll RideType = "all"
)

// Valid reports whether r is one of the bookable ride types.
func (r RideType) Valid() bool {
	switch r {
	case RideTypePrivate, RideTypePooling, RideTypeWomenOnly:
		return true
	}
	return false
}

// Default trip values applied at creation.
const (
	DefaultSeatCapacity = 4
	DefaultRideType     = RideTypePooling
)

// Location is a pickup or dropoff point.
type Location struct {
	Address  string
	City     string
	Province string
}

// Label returns the most specific human-readable form of the location.
func (l Location) Label() string {
	if l.Address != "" {
		return l.Address
	}
	label := strings.TrimSpace(strings.Trim(l.City+", "+l.Province, ", "))
	if label == "" {
		return "Unknown"
	}
	return label
}

// Trip represents a driver-posted ride offering between two cities.
type Trip struct {
	ID             string
	Driver         DriverRef
	Pickup         Location
	Dropoff        Location
	Date           time.Time // Calendar day, midnight UTC
	Time           TimeOfDay
	SeatCapacity   int // Fixed at creation
	AvailableSeats int
	RideType       RideType
	BaseFare       float64
	TaxesAndFees   float64
	TotalFare      float64
	Status         TripStatus
	Passengers     []string // User IDs, in booking order
	CreatedAt      time.Time
}

// Route returns "<pickup> to <dropoff>".
func (t *Trip) Route() string {
	return t.Pickup.Label() + " to " + t.Dropoff.Label()
}

// DisplayTime returns the trip date and time of day, e.g. "Mar 7 09:30".
func (t *Trip) DisplayTime() string {
	if t.Date.IsZero() {
		return t.Time.String()
	}
	return t.Date.Format("Jan 2") + " " + t.Time.String()
}

// HasPassenger reports whether userID holds a seat on the trip.
func (t *Trip) HasPassenger(userID string) bool {
	for _, p := range t.Passengers {
		if p == userID {
			return true
		}
	}
	return false
}

// BookableTripStatuses are the statuses in which a trip accepts bookings.
var BookableTripStatuses = []TripStatus{TripStatusAvailable, TripStatusInProgress}

// Bookable reports whether the trip still accepts bookings. A trip stays
// bookable after the driver accepts its first passenger.
func (t *Trip) Bookable() bool {
	return t.Status == TripStatusAvailable || t.Status == TripStatusInProgress
}

// OwnedBy reports whether the trip was posted by driverID.
func (t *Trip) OwnedBy(driverID string) bool {
	return driverID != "" && t.Driver.ID == driverID
}
