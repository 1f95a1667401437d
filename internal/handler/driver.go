package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Pallavikandikanti846/InterCityGo/internal/middleware"
	"github.com/Pallavikandikanti846/InterCityGo/internal/service"
)

// DriverHandler handles driver-side HTTP requests.
type DriverHandler struct {
	queueService    *service.DriverQueueService
	bookingService  *service.BookingService
	earningsService *service.EarningsService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(
	queueService *service.DriverQueueService,
	bookingService *service.BookingService,
	earningsService *service.EarningsService,
) *DriverHandler {
	return &DriverHandler{
		queueService:    queueService,
		bookingService:  bookingService,
		earningsService: earningsService,
	}
}

// RideRequestResponse is a booking as shown in the driver's queue.
type RideRequestResponse struct {
	BookingResponse
	Passenger   *UserResponse `json:"passenger,omitempty"`
	Route       string        `json:"route"`
	DisplayTime string        `json:"display_time"`
}

// CompleteTripResponse is the HTTP response for completing a trip.
type CompleteTripResponse struct {
	Trip      TripResponse      `json:"trip"`
	Completed []BookingResponse `json:"completed_bookings"`
	Cancelled []BookingResponse `json:"cancelled_bookings"`
}

// PaymentRecordResponse is one completed booking credited to the driver.
type PaymentRecordResponse struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Trip   string  `json:"trip"`
	Date   string  `json:"date"`
}

// EarningsResponse is the HTTP response for a driver's earnings.
type EarningsResponse struct {
	TotalEarnings float64                 `json:"total_earnings"`
	RecordedTotal float64                 `json:"recorded_total"`
	Payments      []PaymentRecordResponse `json:"payments"`
}

// PendingRequests handles GET /v1/driver/pending-requests
func (h *DriverHandler) PendingRequests(c *gin.Context) {
	requests, err := h.queueService.ListPendingForDriver(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RideRequestResponse, 0, len(requests))
	for _, r := range requests {
		resp = append(resp, newRideRequestResponse(r))
	}

	respondJSON(c, http.StatusOK, gin.H{
		"requests": resp,
		"count":    len(resp),
	})
}

// GetBooking handles GET /v1/driver/booking/:id
func (h *DriverHandler) GetBooking(c *gin.Context) {
	request, err := h.queueService.GetBookingForDriver(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideRequestResponse(request))
}

// Accept handles POST /v1/driver/booking/:id/accept
func (h *DriverHandler) Accept(c *gin.Context) {
	booking, err := h.bookingService.AcceptByDriver(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingResponse(booking, nil))
}

// Decline handles POST /v1/driver/booking/:id/decline
func (h *DriverHandler) Decline(c *gin.Context) {
	booking, err := h.bookingService.DeclineByDriver(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingResponse(booking, nil))
}

// CompleteTrip handles POST /v1/driver/trips/:id/complete
func (h *DriverHandler) CompleteTrip(c *gin.Context) {
	result, err := h.bookingService.CompleteTrip(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := CompleteTripResponse{
		Trip:      newTripResponse(result.Trip),
		Completed: make([]BookingResponse, 0, len(result.Completed)),
		Cancelled: make([]BookingResponse, 0, len(result.Cancelled)),
	}
	for _, b := range result.Completed {
		resp.Completed = append(resp.Completed, newBookingResponse(b, nil))
	}
	for _, b := range result.Cancelled {
		resp.Cancelled = append(resp.Cancelled, newBookingResponse(b, nil))
	}

	respondJSON(c, http.StatusOK, resp)
}

// Earnings handles GET /v1/driver/earnings
func (h *DriverHandler) Earnings(c *gin.Context) {
	report, err := h.earningsService.EarningsFor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := EarningsResponse{
		TotalEarnings: report.TotalEarnings,
		RecordedTotal: report.RecordedTotal,
		Payments:      make([]PaymentRecordResponse, 0, len(report.Payments)),
	}
	for _, p := range report.Payments {
		resp.Payments = append(resp.Payments, PaymentRecordResponse{
			ID:     p.BookingID,
			Amount: p.Amount,
			Trip:   p.Route,
			Date:   p.Date.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, resp)
}

func newRideRequestResponse(r *service.RideRequest) RideRequestResponse {
	resp := RideRequestResponse{
		BookingResponse: newBookingResponse(r.Booking, r.Trip),
		Route:           r.Route,
		DisplayTime:     r.DisplayTime,
	}
	if r.Passenger != nil {
		p := newUserResponse(r.Passenger)
		resp.Passenger = &p
	}
	return resp
}
