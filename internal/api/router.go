package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/service"
)

// SessionCookie carries the admin session token for browser clients
const SessionCookie = "admin_session"

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	sessionHandler := NewSessionHandler(services, cfg, log)
	stripHandler := NewStripHandler(services, cfg, log)

	router.GET("/health", healthCheck)

	v1 := router.Group("/v1")
	{
		v1.POST("/session", sessionHandler.Login)
		v1.DELETE("/session", sessionHandler.Logout)

		// Published index, no session required
		v1.GET("/strips", stripHandler.ListPublic)

		admin := v1.Group("/admin")
		admin.Use(requireSession(services.Session))
		{
			admin.GET("/strips", stripHandler.List)
			admin.POST("/strips", stripHandler.Upload)
			admin.DELETE("/strips/:id", stripHandler.Delete)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "strip-admin-api",
	})
}

// requireSession rejects requests without an active admin session
func requireSession(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.IsActive(sessionToken(c)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin session required"})
			return
		}
		c.Next()
	}
}

// sessionToken reads the bearer token, falling back to the session cookie
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return token
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
