package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationBookingAccepted  NotificationType = "BOOKING_ACCEPTED"
	NotificationBookingDeclined  NotificationType = "BOOKING_DECLINED"
	NotificationNewRideRequest   NotificationType = "NEW_RIDE_REQUEST"
	NotificationTripCompleted    NotificationType = "TRIP_COMPLETED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // User or Driver ID
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationService delivers booking lifecycle notifications. Delivery is
// a structured log line; push and email channels are not wired.
type NotificationService struct {
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{logger: logger}
}

// NotifyBookingConfirmed tells the passenger the seat is theirs and the
// driver that a new request arrived.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, trip *domain.Trip) {
	s.send(ctx, Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: booking.UserID,
		Title:       "Booking Confirmed",
		Message:     fmt.Sprintf("Your seat on %s (%s) is booked for $%.2f", trip.Route(), trip.DisplayTime(), booking.FareAmount),
		Data:        map[string]any{"booking_id": booking.ID, "trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
	s.send(ctx, Notification{
		Type:        NotificationNewRideRequest,
		RecipientID: trip.Driver.ID,
		Title:       "New Ride Request",
		Message:     fmt.Sprintf("A passenger booked a seat on %s", trip.Route()),
		Data:        map[string]any{"booking_id": booking.ID, "trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyBookingCancelled tells the driver a passenger released their seat.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, trip *domain.Trip) {
	s.send(ctx, Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: trip.Driver.ID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("A passenger cancelled their seat on %s", trip.Route()),
		Data:        map[string]any{"booking_id": booking.ID, "trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyBookingAccepted tells the passenger the driver accepted.
func (s *NotificationService) NotifyBookingAccepted(ctx context.Context, booking *domain.Booking, trip *domain.Trip) {
	s.send(ctx, Notification{
		Type:        NotificationBookingAccepted,
		RecipientID: booking.UserID,
		Title:       "Ride Accepted",
		Message:     fmt.Sprintf("Your driver accepted your ride %s on %s", trip.Route(), trip.DisplayTime()),
		Data:        map[string]any{"booking_id": booking.ID, "trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyBookingDeclined tells the passenger the driver declined.
func (s *NotificationService) NotifyBookingDeclined(ctx context.Context, booking *domain.Booking, trip *domain.Trip) {
	s.send(ctx, Notification{
		Type:        NotificationBookingDeclined,
		RecipientID: booking.UserID,
		Title:       "Ride Declined",
		Message:     fmt.Sprintf("Your driver declined your ride %s; you have been refunded", trip.Route()),
		Data:        map[string]any{"booking_id": booking.ID, "trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyTripCompleted tells each completed passenger the trip is over.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip, bookings []*domain.Booking) {
	for _, b := range bookings {
		s.send(ctx, Notification{
			Type:        NotificationTripCompleted,
			RecipientID: b.UserID,
			Title:       "Trip Completed",
			Message:     fmt.Sprintf("Thanks for riding %s", trip.Route()),
			Data:        map[string]any{"booking_id": b.ID, "trip_id": trip.ID},
			CreatedAt:   time.Now(),
		})
	}
}

func (s *NotificationService) send(ctx context.Context, n Notification) {
	s.logger.InfoContext(ctx, "notification",
		"type", n.Type,
		"recipient", n.RecipientID,
		"title", n.Title,
		"message", n.Message,
	)
}
