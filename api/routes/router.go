// api/routes/router.go
package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"showtime/docs"
	"showtime/internal/bookings"
	"showtime/internal/events"
	"showtime/internal/notifications"
	"showtime/internal/seats"
	"showtime/internal/selection"
	"showtime/internal/shared/config"
	"showtime/internal/shared/database"
	"showtime/internal/shared/middleware"
	"showtime/internal/tickets"
	"showtime/internal/transactions"
	"showtime/internal/venues"
	"showtime/pkg/cache"
	"showtime/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher notifications.Publisher
	log       *logger.Logger

	// Built by NewRouter and shared between route groups
	eventService     events.Service
	seatService      seats.Service
	selectionService selection.Service
	ticketService    tickets.Service
}

// NewRouter builds the domain services on the backends selected in cfg.
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) (*Router, error) {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	r := &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
		log:       logger.GetDefault(),
	}

	// Events
	eventRepo, err := r.eventRepository()
	if err != nil {
		return nil, err
	}
	r.eventService = events.NewService(eventRepo)

	// Seat availability, cached in Redis when it is available
	seatStore, err := r.seatStore()
	if err != nil {
		return nil, err
	}
	var availabilityCache cache.Service
	if db.Redis != nil {
		availabilityCache = cache.NewService(db.Redis)
	}
	r.seatService = seats.NewService(seatStore, r.eventService, availabilityCache, cfg.Redis.AvailabilityCacheTTL)

	// Selection sessions
	sessionStore, err := r.sessionStore()
	if err != nil {
		return nil, err
	}
	r.selectionService = selection.NewService(sessionStore, r.seatService, r.eventService)

	// Tickets
	ticketRepo, err := r.ticketRepository()
	if err != nil {
		return nil, err
	}
	r.ticketService = tickets.NewService(ticketRepo)

	return r, nil
}

// Events exposes the catalog service for startup seeding.
func (r *Router) Events() events.Service {
	return r.eventService
}

// Availability exposes the availability service for the cache sync consumer.
func (r *Router) Availability() seats.Service {
	return r.seatService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)
	r.setupDocsRoutes(engine)

	auth := []gin.HandlerFunc{middleware.JWTAuthWithConfig(r.config)}
	admin := []gin.HandlerFunc{middleware.JWTAuthWithConfig(r.config), middleware.RequireAdmin()}

	api := engine.Group(r.config.GetAPIBasePath())
	{
		events.SetupEventRoutes(api, events.NewController(r.eventService), admin...)
		venues.SetupVenueRoutes(api, venues.NewController(venues.NewService()), admin...)
		seats.SetupSeatRoutes(api, seats.NewController(r.seatService), admin...)
		selection.SetupSelectionRoutes(api, selection.NewController(r.selectionService))
		r.setupBookingRoutes(api, auth)
		tickets.SetupTicketRoutes(api, tickets.NewController(r.ticketService), auth, admin)
		transactions.SetupTransactionRoutes(api, transactions.NewController(transactions.NewService(r.ticketService)), auth...)
	}
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup, auth []gin.HandlerFunc) {
	bookingService := bookings.NewService(bookings.Dependencies{
		Checkouts:    bookings.NewMemoryCheckoutStore(),
		Selections:   r.selectionService,
		Availability: r.seatService,
		Tickets:      r.ticketService,
		Events:       r.eventService,
		Payments:     bookings.NewSimulatedGateway(r.config.Payment),
		Publisher:    r.publisher,
	})

	bookings.SetupBookingRoutes(rg, bookings.NewController(bookingService), auth...)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := r.db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "showtime-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "showtime-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"storage": gin.H{
				"availability": r.config.Storage.Availability,
				"tickets":      r.config.Storage.Tickets,
				"sessions":     r.config.Storage.Sessions,
			},
			"kafka":     r.config.Kafka.Enabled,
			"timestamp": time.Now(),
		})
	})
}

// setupDocsRoutes serves the Swagger UI at /swagger/index.html
func (r *Router) setupDocsRoutes(engine *gin.Engine) {
	docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Events live in postgres whenever postgres is connected; otherwise the embedded
// catalog is served from memory.
func (r *Router) eventRepository() (events.Repository, error) {
	if r.db.PostgreSQL != nil {
		return events.NewRepository(r.db.PostgreSQL), nil
	}
	return events.NewMemoryRepository(), nil
}

func (r *Router) seatStore() (seats.Store, error) {
	switch r.config.Storage.Availability {
	case config.BackendPostgres:
		if r.db.PostgreSQL == nil {
			return nil, fmt.Errorf("availability backend %q needs a PostgreSQL connection", config.BackendPostgres)
		}
		return seats.NewPostgresStore(r.db.PostgreSQL), nil
	case config.BackendRedis:
		if r.db.Redis == nil {
			return nil, fmt.Errorf("availability backend %q needs a Redis connection", config.BackendRedis)
		}
		return seats.NewRedisStore(r.db.Redis), nil
	case config.BackendMemory:
		r.log.Warn("Seat availability is kept in memory and will not survive a restart")
		return seats.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown availability backend %q", r.config.Storage.Availability)
	}
}

func (r *Router) sessionStore() (selection.Store, error) {
	switch r.config.Storage.Sessions {
	case config.BackendRedis:
		if r.db.Redis == nil {
			return nil, fmt.Errorf("session backend %q needs a Redis connection", config.BackendRedis)
		}
		return selection.NewRedisStore(r.db.Redis, r.config.Redis.SessionTTL), nil
	case config.BackendMemory:
		return selection.NewMemoryStore(r.config.Redis.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", r.config.Storage.Sessions)
	}
}

func (r *Router) ticketRepository() (tickets.Repository, error) {
	switch r.config.Storage.Tickets {
	case config.BackendPostgres:
		if r.db.PostgreSQL == nil {
			return nil, fmt.Errorf("ticket backend %q needs a PostgreSQL connection", config.BackendPostgres)
		}
		return tickets.NewRepository(r.db.PostgreSQL), nil
	case config.BackendMemory:
		r.log.Warn("Tickets are kept in memory and will not survive a restart")
		return tickets.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown ticket backend %q", r.config.Storage.Tickets)
	}
}
