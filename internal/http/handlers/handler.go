package handlers

import (
	"context"
	"time"

	"shuttle/internal/http/middleware"
	"shuttle/internal/metrics"
	"shuttle/internal/publisher"
	"shuttle/internal/repositories"
	"shuttle/internal/services"

	"github.com/gin-gonic/gin"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler carries the process-wide dependencies. Services are built per
// request so each one logs with the caller's request_id.
type Handler struct {
	Store     repositories.Store
	DB        Pinger
	Metrics   *metrics.Collector
	Publisher publisher.LocationPublisher
	Clock     services.Clock
	JWTSecret []byte
	JWTTTL    time.Duration
}

func (h *Handler) catalog(c *gin.Context) services.CatalogService {
	return services.CatalogService{Store: h.Store, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{
		Store:     h.Store,
		Clock:     h.Clock,
		Metrics:   h.Metrics,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) trips(c *gin.Context) services.TripService {
	return services.TripService{
		Store:     h.Store,
		Clock:     h.Clock,
		Metrics:   h.Metrics,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) locations(c *gin.Context) services.LocationService {
	return services.LocationService{
		Store:     h.Store,
		Publisher: h.Publisher,
		Clock:     h.Clock,
		Metrics:   h.Metrics,
		RequestID: middleware.GetRequestID(c),
	}
}

// Auth is also used by the router to verify bearer tokens.
func (h *Handler) Auth(requestID string) services.AuthService {
	return services.AuthService{
		Store:     h.Store,
		Secret:    h.JWTSecret,
		TTL:       h.JWTTTL,
		Clock:     h.Clock,
		RequestID: requestID,
	}
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	return services.DocsService{Store: h.Store, Clock: h.Clock, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) reports() services.ReportsService {
	return services.ReportsService{Store: h.Store, Clock: h.Clock}
}
