package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pallavikandikanti846/InterCityGo/internal/middleware"
	"github.com/Pallavikandikanti846/InterCityGo/internal/service"
)

// BookingHandler handles passenger-side HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// MyTripsResponse is the HTTP response for a passenger's bookings.
type MyTripsResponse struct {
	Upcoming []BookingResponse `json:"upcoming"`
	Past     []BookingResponse `json:"past"`
}

// MyTrips handles GET /v1/bookings/my-trips
func (h *BookingHandler) MyTrips(c *gin.Context) {
	trips, err := h.bookingService.ListMyTrips(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := MyTripsResponse{
		Upcoming: make([]BookingResponse, 0, len(trips.Upcoming)),
		Past:     make([]BookingResponse, 0, len(trips.Past)),
	}
	for _, v := range trips.Upcoming {
		resp.Upcoming = append(resp.Upcoming, newBookingResponse(v.Booking, v.Trip))
	}
	for _, v := range trips.Past {
		resp.Past = append(resp.Past, newBookingResponse(v.Booking, v.Trip))
	}

	respondJSON(c, http.StatusOK, resp)
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	view, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingResponse(view.Booking, view.Trip))
}

// Cancel handles PUT /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingResponse(booking, nil))
}
