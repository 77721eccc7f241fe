package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/resilience"
)

// Config holds the knobs for the standard middleware chain.
type Config struct {
	Logger         *slog.Logger
	ServiceName    string
	EnableCORS     bool
	RequestTimeout time.Duration
	TrustedProxies []string
}

// DefaultConfig returns the middleware configuration used by the
// pricing API.
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:         logger,
		ServiceName:    serviceName,
		EnableCORS:     true,
		RequestTimeout: 30 * time.Second,
		TrustedProxies: nil,
	}
}

// Setup applies the standard middleware chain to a Gin router.
// Recovery runs first so panics anywhere below it still produce a
// response; the error handler runs last so every earlier middleware
// and handler can rely on it.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	router.Use(Recovery(config.Logger))
	router.Use(RequestID())
	router.Use(CorrelationID())
	router.Use(CloudEvents())
	router.Use(Logger(config.Logger))
	router.Use(InputSanitizer())
	router.Use(SecurityHeaders())

	if config.EnableCORS {
		router.Use(CORS())
	}
	if config.RequestTimeout > 0 {
		router.Use(Timeout(config.RequestTimeout))
	}

	router.Use(ContentType())
	router.Use(ErrorHandler(config.Logger))
}

// CORS handles cross-origin requests, including preflight.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Correlation-ID, X-ERP-Branch-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Correlation-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Timeout bounds how long a request may run. Handlers see the
// deadline through the request context.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SecurityHeaders sets the response headers expected of every ERP
// service behind the gateway.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Header("Pragma", "no-cache")

		c.Next()
	}
}

// HealthCheck reports liveness.
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	}
}

// ReadinessCheck reports readiness based on the supplied probe,
// typically a database ping.
func ReadinessCheck(serviceName string, checkFn func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkFn(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"service": serviceName,
		})
	}
}

// BreakerStatus reports the live state of every registered circuit
// breaker, for operators checking why readiness is flapping.
func BreakerStatus(serviceName string, registry *resilience.CircuitBreakerRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":  serviceName,
			"breakers": registry.Status(),
		})
	}
}

func routingError(c *gin.Context, status int, code, message string) {
	requestID, _ := c.Get(ContextKeyRequestID)
	reqID, _ := requestID.(string)

	c.JSON(status, APIErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: reqID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	})
}

// NoRoute renders unmatched paths in the standard error envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		routingError(c, http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested resource was not found")
	}
}

// NoMethod renders unsupported methods in the standard error envelope.
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		routingError(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource")
	}
}
