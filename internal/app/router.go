package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/Pallavikandikanti846/InterCityGo/internal/handler"
	"github.com/Pallavikandikanti846/InterCityGo/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler    *handler.TripHandler
	BookingHandler *handler.BookingHandler
	DriverHandler  *handler.DriverHandler
	RedisClient    redis.Cmdable // Optional, enables idempotency keys
	NewRelicApp    *newrelic.Application
	Logger         *slog.Logger
	JWTSecret      []byte
	AllowedOrigins []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes. Everything below requires a bearer token.
	v1 := router.Group("/v1")
	v1.Use(middleware.Authenticate(deps.JWTSecret))
	if deps.RedisClient != nil {
		v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}
	{
		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("/search", deps.TripHandler.Search)
			trips.POST("", middleware.RequireDriver(), deps.TripHandler.Create)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/pool", deps.TripHandler.PoolQuote)
			trips.POST("/:id/book", deps.TripHandler.Book)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.GET("/my-trips", deps.BookingHandler.MyTrips)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.PUT("/:id/cancel", deps.BookingHandler.Cancel)
		}

		// Driver routes.
		driver := v1.Group("/driver", middleware.RequireDriver())
		{
			driver.GET("/pending-requests", deps.DriverHandler.PendingRequests)
			driver.GET("/booking/:id", deps.DriverHandler.GetBooking)
			driver.POST("/booking/:id/accept", deps.DriverHandler.Accept)
			driver.POST("/booking/:id/decline", deps.DriverHandler.Decline)
			driver.POST("/trips/:id/complete", deps.DriverHandler.CompleteTrip)
			driver.GET("/earnings", deps.DriverHandler.Earnings)
		}
	}

	return router
}

// corsConfig allows credentialed requests from the configured origins, or
// anonymous requests from any origin when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Idempotent-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
