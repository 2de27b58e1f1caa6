package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/service"
)

// SessionHandler handles admin login and logout
type SessionHandler struct {
	sessions service.SessionService
	cfg      *config.Config
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: services.Session,
		cfg:      cfg,
		log:      log.With().Str("handler", "session").Logger(),
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/session
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	token, ok := h.sessions.Authenticate(req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	maxAge := int(h.cfg.Admin.SessionTTL.Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout handles DELETE /v1/session
func (h *SessionHandler) Logout(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		h.sessions.Logout(token)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}
