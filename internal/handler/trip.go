package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/middleware"
	"github.com/Pallavikandikanti846/InterCityGo/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	catalogService *service.CatalogService
	bookingService *service.BookingService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(catalogService *service.CatalogService, bookingService *service.BookingService) *TripHandler {
	return &TripHandler{
		catalogService: catalogService,
		bookingService: bookingService,
	}
}

// SearchTripsRequest is the HTTP request body for searching trips.
type SearchTripsRequest struct {
	PickupCity  string `json:"pickup_city"`
	DropoffCity string `json:"dropoff_city"`
	Date        string `json:"date,omitempty"`      // YYYY-MM-DD
	RideType    string `json:"ride_type,omitempty"` // private, pooling, women-only, all
}

// LocationRequest is a pickup or dropoff point in a request body.
type LocationRequest struct {
	Address  string `json:"address"`
	City     string `json:"city"`
	Province string `json:"province"`
}

// CreateTripRequest is the HTTP request body for posting a trip.
type CreateTripRequest struct {
	Pickup         LocationRequest `json:"pickup_location"`
	Dropoff        LocationRequest `json:"dropoff_location"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	RideType       string          `json:"ride_type,omitempty"`
	AvailableSeats *int            `json:"available_seats,omitempty"`
}

// TripDetailsResponse is the HTTP response for a single trip.
type TripDetailsResponse struct {
	TripResponse
	Driver            *DriverResponse `json:"driver,omitempty"`
	PassengerProfiles []UserResponse  `json:"passenger_profiles"`
}

// PoolQuoteResponse is the HTTP response for a pooling quote.
type PoolQuoteResponse struct {
	TripID       string         `json:"trip_id"`
	CoPassengers []UserResponse `json:"co_passengers"`
	PrivateFare  float64        `json:"private_fare"`
	PoolFare     float64        `json:"pool_fare"`
	Savings      float64        `json:"savings"`
}

// Search handles POST /v1/trips/search
func (h *TripHandler) Search(c *gin.Context) {
	var req SearchTripsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trips, err := h.catalogService.Search(c.Request.Context(), service.SearchTripsRequest{
		PickupCity:  req.PickupCity,
		DropoffCity: req.DropoffCity,
		Date:        req.Date,
		RideType:    req.RideType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"trips": newTripResponses(trips),
		"count": len(trips),
	})
}

// Create handles POST /v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.catalogService.Create(c.Request.Context(), service.CreateTripRequest{
		DriverID: middleware.UserID(c),
		Pickup: service.LocationInput{
			Address:  req.Pickup.Address,
			City:     req.Pickup.City,
			Province: req.Pickup.Province,
		},
		Dropoff: service.LocationInput{
			Address:  req.Dropoff.Address,
			City:     req.Dropoff.City,
			Province: req.Dropoff.Province,
		},
		Date:           req.Date,
		Time:           req.Time,
		RideType:       domain.RideType(req.RideType),
		AvailableSeats: req.AvailableSeats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	details, err := h.catalogService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TripDetailsResponse{
		TripResponse:      newTripResponse(details.Trip),
		Driver:            newDriverResponse(details.Driver),
		PassengerProfiles: newUserResponses(details.Passengers),
	})
}

// PoolQuote handles GET /v1/trips/:id/pool
func (h *TripHandler) PoolQuote(c *gin.Context) {
	quote, err := h.catalogService.PoolQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PoolQuoteResponse{
		TripID:       quote.TripID,
		CoPassengers: newUserResponses(quote.CoPassengers),
		PrivateFare:  quote.PrivateFare,
		PoolFare:     quote.PoolFare,
		Savings:      quote.Savings,
	})
}

// Book handles POST /v1/trips/:id/book
func (h *TripHandler) Book(c *gin.Context) {
	booking, err := h.bookingService.Book(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newBookingResponse(booking, nil))
}
