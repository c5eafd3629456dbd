package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/sweetshop/inventory-api/internal/api/docs"
	"github.com/sweetshop/inventory-api/internal/api/handler"
	"github.com/sweetshop/inventory-api/internal/api/middleware"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/infrastructure/config"
	health "github.com/sweetshop/inventory-api/internal/infrastructure/http/handlers"
)

// Dependencies is everything the router needs to serve requests.
type Dependencies struct {
	AuthService  ports.AuthService
	SweetService ports.SweetService
	Tokens       ports.TokenVerifier

	// RateCounter backs the /api limiter. When nil an in-process limiter
	// with the same budget is used instead.
	RateCounter middleware.WindowCounter
	RateLimit   config.RateLimitConfig
	HTTP        config.HTTPConfig

	// Checkers are probed by /health/ready.
	Checkers []health.Checker

	// Registry receives the HTTP metrics and serves /metrics. Nil means the
	// process-wide default registry.
	Registry *prometheus.Registry

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "sweetshop",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{deps.HTTP.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handler.IdempotencyHeader},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.Secure())
	bodyLimit := deps.HTTP.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "1M"
	}
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Operational endpoints (no auth, no rate limit) ---
	livenessHandler := health.NewHealthHandler()
	readinessHandler := health.NewHealthDependenciesHandler(deps.Checkers...)

	e.GET("/health", livenessHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	apiGroup := e.Group("/api", rateLimiter(deps))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	apiGroup.POST("/auth/register", authHandler.Register)
	apiGroup.POST("/auth/login", authHandler.Login)

	sweetHandler := handler.NewSweetHandler(deps.SweetService)
	adminOnly := middleware.AdminOnly()

	sweets := apiGroup.Group("/sweets", middleware.Auth(deps.Tokens))
	sweets.POST("", sweetHandler.Create)
	sweets.GET("", sweetHandler.List)
	sweets.GET("/search", sweetHandler.Search)
	sweets.GET("/:id", sweetHandler.Get)
	sweets.PUT("/:id", sweetHandler.Update)
	sweets.DELETE("/:id", sweetHandler.Delete, adminOnly)
	sweets.POST("/:id/purchase", sweetHandler.Purchase)
	sweets.POST("/:id/restock", sweetHandler.Restock, adminOnly)

	return e
}

func rateLimiter(deps Dependencies) echo.MiddlewareFunc {
	if deps.RateCounter != nil {
		return middleware.RateLimit(deps.RateCounter, deps.RateLimit.MaxRequests, deps.Logger)
	}

	window := deps.RateLimit.Window
	if window <= 0 {
		window = 15 * time.Minute
	}
	limit := rate.Limit(float64(deps.RateLimit.MaxRequests) / window.Seconds())

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return deps.RateLimit.MaxRequests <= 0 || c.Request().Method == http.MethodOptions
		},
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      limit,
			Burst:     deps.RateLimit.MaxRequests,
			ExpiresIn: window,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, middleware.RateLimitMessage)
		},
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			var identity string
			if id, ok := middleware.IdentityFrom(c); ok {
				identity = id.ID
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Str("user_id", identity).
				Msg("request")
			return nil
		},
	})
}
