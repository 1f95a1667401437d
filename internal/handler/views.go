package handler

import (
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// LocationResponse is a pickup or dropoff point.
type LocationResponse struct {
	Address  string `json:"address,omitempty"`
	City     string `json:"city"`
	Province string `json:"province,omitempty"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID             string           `json:"id"`
	DriverID       string           `json:"driver_id"`
	DriverKind     string           `json:"driver_kind"`
	Pickup         LocationResponse `json:"pickup_location"`
	Dropoff        LocationResponse `json:"dropoff_location"`
	Date           string           `json:"date"`
	Time           string           `json:"time"`
	Route          string           `json:"route"`
	SeatCapacity   int              `json:"seat_capacity"`
	AvailableSeats int              `json:"available_seats"`
	RideType       string           `json:"ride_type"`
	BaseFare       float64          `json:"base_fare"`
	TaxesAndFees   float64          `json:"taxes_and_fees"`
	TotalFare      float64          `json:"total_fare"`
	Status         string           `json:"status"`
	Passengers     []string         `json:"passengers"`
	CreatedAt      string           `json:"created_at"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	TripID        string        `json:"trip_id"`
	PickupTime    string        `json:"pickup_time,omitempty"`
	Status        string        `json:"status"`
	FareAmount    float64       `json:"fare_amount"`
	PaymentStatus string        `json:"payment_status"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
	Trip          *TripResponse `json:"trip,omitempty"`
}

// UserResponse is the public profile of a passenger.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DriverResponse is the public profile of a driver.
type DriverResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	CarModel string `json:"car_model,omitempty"`
}

func newTripResponse(t *domain.Trip) TripResponse {
	passengers := t.Passengers
	if passengers == nil {
		passengers = []string{}
	}
	return TripResponse{
		ID:             t.ID,
		DriverID:       t.Driver.ID,
		DriverKind:     string(t.Driver.Kind),
		Pickup:         newLocationResponse(t.Pickup),
		Dropoff:        newLocationResponse(t.Dropoff),
		Date:           t.Date.Format(time.DateOnly),
		Time:           t.Time.String(),
		Route:          t.Route(),
		SeatCapacity:   t.SeatCapacity,
		AvailableSeats: t.AvailableSeats,
		RideType:       string(t.RideType),
		BaseFare:       t.BaseFare,
		TaxesAndFees:   t.TaxesAndFees,
		TotalFare:      t.TotalFare,
		Status:         string(t.Status),
		Passengers:     passengers,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
}

func newTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, newTripResponse(t))
	}
	return out
}

func newLocationResponse(l domain.Location) LocationResponse {
	return LocationResponse{Address: l.Address, City: l.City, Province: l.Province}
}

func newBookingResponse(b *domain.Booking, trip *domain.Trip) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		TripID:        b.TripID,
		PickupTime:    b.PickupTime,
		Status:        string(b.Status),
		FareAmount:    b.FareAmount,
		PaymentStatus: string(b.PaymentStatus),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Format(time.RFC3339),
	}
	if trip != nil {
		tr := newTripResponse(trip)
		resp.Trip = &tr
	}
	return resp
}

func newUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

func newDriverResponse(d *domain.Driver) *DriverResponse {
	if d == nil {
		return nil
	}
	return &DriverResponse{
		ID:       d.ID,
		Kind:     string(d.Kind),
		Name:     d.Name,
		Email:    d.Email,
		Phone:    d.Phone,
		CarModel: d.CarModel,
	}
}
