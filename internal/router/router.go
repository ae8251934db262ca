// Package router builds the echo instance and registers every route.
package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/config"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/handler"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /v1.
type Handlers struct {
	Bookings *handler.BookingHandler
	Payments *handler.PaymentHandler
	Invoices *handler.InvoiceHandler
	Schedule *handler.ScheduleHandler
	Catalog  *handler.CatalogHandler
}

// Options carries everything New needs besides the handlers. Redis may
// be nil, which disables rate limiting and the catalog cache.
type Options struct {
	JWTSecret  string
	Production bool
	Log        *slog.Logger
	Redis      *redis.Client
	RateLimit  config.RateLimitConfig
	Cache      config.CacheConfig
	Ready      map[string]handler.Pinger
}

// New returns an echo instance with global middleware and all routes.
func New(h Handlers, opts Options) *echo.Echo {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.SecureHeaders(opts.Production))

	RegisterRoutes(e, opts.Ready)

	limit := middleware.NewTokenBucket(opts.RateLimit, opts.Redis, log)
	RegisterCatalog(e, h.Catalog, opts.JWTSecret,
		limit,
		middleware.NewRedisCache(opts.Cache, opts.Redis, log),
		middleware.NewCachePurge(opts.Cache, opts.Redis, log),
	)
	RegisterBookings(e, h.Bookings, h.Payments, h.Invoices, opts.JWTSecret, limit)
	RegisterSchedule(e, h.Schedule, opts.JWTSecret, limit)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, ready map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
}

// errorHandler renders echo's own errors (unknown route, wrong method,
// body too large) in the API's error shape.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := http.StatusInternalServerError, "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			log.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		kind := "internal"
		switch {
		case status == http.StatusNotFound:
			kind = "not_found"
		case status == http.StatusMethodNotAllowed:
			kind = "method_not_allowed"
		case status < http.StatusInternalServerError:
			kind = "validation"
		}
		_ = c.JSON(status, map[string]any{"error": map[string]string{"kind": kind, "message": msg}})
	}
}
