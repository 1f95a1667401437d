package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// EarningsService aggregates what drivers have earned from completed
// bookings.
type EarningsService struct {
	tripRepo    repository.TripRepository
	bookingRepo repository.BookingRepository
	drivers     *DriverResolver
}

// NewEarningsService creates a new EarningsService.
func NewEarningsService(
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	drivers *DriverResolver,
) *EarningsService {
	return &EarningsService{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		drivers:     drivers,
	}
}

// PaymentRecord is one completed booking credited to a driver.
type PaymentRecord struct {
	BookingID string
	Amount    float64
	Route     string
	Date      time.Time // When the booking completed
}

// EarningsReport is a driver's earnings breakdown.
type EarningsReport struct {
	DriverID      string
	Payments      []PaymentRecord // Most recently completed first
	TotalEarnings float64         // Sum of Payments
	RecordedTotal float64         // Running total stored on the driver record
}

// EarningsFor sums the completed bookings on every trip the driver posted.
// TotalEarnings is always recomputed; RecordedTotal is reported alongside
// for reconciliation and never substituted for it.
func (s *EarningsService) EarningsFor(ctx context.Context, driverID string) (*EarningsReport, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.drivers.Lookup(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}

	report := &EarningsReport{
		DriverID:      driverID,
		Payments:      []PaymentRecord{},
		RecordedTotal: driver.TotalEarnings,
	}

	trips, err := s.tripRepo.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return report, nil
	}

	byID := make(map[string]*domain.Trip, len(trips))
	tripIDs := make([]string, 0, len(trips))
	for _, t := range trips {
		byID[t.ID] = t
		tripIDs = append(tripIDs, t.ID)
	}

	bookings, err := s.bookingRepo.ListByTrips(ctx, tripIDs, domain.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, b := range bookings {
		route := "Unknown to Unknown"
		if trip, ok := byID[b.TripID]; ok {
			route = trip.Route()
		}

		date := b.UpdatedAt
		if date.IsZero() {
			date = b.CreatedAt
		}

		report.Payments = append(report.Payments, PaymentRecord{
			BookingID: b.ID,
			Amount:    b.FareAmount,
			Route:     route,
			Date:      date,
		})
		total += b.FareAmount
	}

	sort.SliceStable(report.Payments, func(i, j int) bool {
		return report.Payments[i].Date.After(report.Payments[j].Date)
	})

	report.TotalEarnings = roundCents(total)
	return report, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
