package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/event-pickup/internal/api/handler"
	"github.com/99minutos/event-pickup/internal/api/middleware"
	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Dispatch     ports.DispatchService
	Signals      handler.SignalQueue
	HealthChecks map[string]handler.Check
	JWTSecret    string
	Log          zerolog.Logger
	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "pickup",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- v1 API ---
	dispatchHandler := handler.NewDispatchHandler(d.Dispatch)
	signalHandler := handler.NewSignalHandler(d.Signals)

	v1 := e.Group("/v1", middleware.Auth(d.JWTSecret))
	staff := middleware.RBAC(domain.RoleDriver, domain.RoleAdmin)

	events := v1.Group("/events/:event_id")
	events.POST("/dispatch", dispatchHandler.Dispatch, staff)
	events.GET("/plan", dispatchHandler.Plan, staff)
	events.GET("/pickups", dispatchHandler.Pickups, staff)
	events.POST("/pickups/:subscriber_id/complete", dispatchHandler.Complete, staff)
	events.POST("/pickups/:subscriber_id/cancel", dispatchHandler.Cancel,
		middleware.RBAC(domain.RoleDriver, domain.RoleAdmin, domain.RoleSubscriber))

	v1.POST("/signals", signalHandler.Receive, staff)

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
