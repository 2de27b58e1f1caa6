package service

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// sessionService checks a single static credential and hands out opaque
// session tokens held in memory until logout or expiry. There is no lockout
// or rate limiting; this is a capability check, not a security boundary.
type sessionService struct {
	password []byte
	hash     []byte
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewSessionService creates a SessionService from the injected credential
func NewSessionService(cfg *config.AdminConfig, log zerolog.Logger) (SessionService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
	}

	return &sessionService{
		password: []byte(cfg.Password),
		hash:     []byte(cfg.PasswordHash),
		ttl:      cfg.SessionTTL,
		now:      time.Now,
		log:      log.With().Str("service", "session").Logger(),
		sessions: make(map[string]time.Time),
	}, nil
}

// Authenticate returns a new session token when secret matches
func (s *sessionService) Authenticate(secret string) (string, bool) {
	if !s.matches(secret) {
		s.log.Warn().Msg("Rejected admin login")
		return "", false
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = s.now().Add(s.ttl)
	s.pruneLocked()
	s.mu.Unlock()

	s.log.Info().Msg("Admin session started")
	return token, true
}

// IsActive reports whether token belongs to an unexpired session
func (s *sessionService) IsActive(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.sessions[token]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Logout clears the session
func (s *sessionService) Logout(token string) {
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if ok {
		s.log.Info().Msg("Admin session ended")
	}
}

func (s *sessionService) matches(secret string) bool {
	if len(s.hash) > 0 {
		return bcrypt.CompareHashAndPassword(s.hash, []byte(secret)) == nil
	}
	return subtle.ConstantTimeCompare(s.password, []byte(secret)) == 1
}

func (s *sessionService) pruneLocked() {
	now := s.now()
	for token, expires := range s.sessions {
		if !now.Before(expires) {
			delete(s.sessions, token)
		}
	}
}
