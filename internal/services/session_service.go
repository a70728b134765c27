package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

// ErrInvalidSession covers absent, expired and malformed session tokens
// alike: callers must not be able to tell the cases apart.
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionService validates and manages server-side sessions.
type SessionService struct {
	sessionRepo repository.SessionRepository
	lifetime    time.Duration
}

// NewSessionService creates a new SessionService. Lifetime is expressed
// in days.
func NewSessionService(sessionRepo repository.SessionRepository, lifetimeDays int) *SessionService {
	if lifetimeDays <= 0 {
		lifetimeDays = 30
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		lifetime:    time.Duration(lifetimeDays) * 24 * time.Hour,
	}
}

// Lifetime returns the configured session lifetime.
func (s *SessionService) Lifetime() time.Duration {
	return s.lifetime
}

// Validate resolves a session token into the session with its user and
// active tenant. Every failure is ErrInvalidSession.
func (s *SessionService) Validate(token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.sessionRepo.FindValidByToken(token, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	return session, nil
}

// Create starts a new session for the user, optionally bound to an
// active tenant.
func (s *SessionService) Create(userID uint64, tenantID *uint64) (*models.Session, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		UserID:       userID,
		TenantID:     tenantID,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(s.lifetime),
	}

	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ReassignTenant atomically points a live session at another active
// tenant. Membership is the caller's responsibility. Expired sessions
// fail as invalid.
func (s *SessionService) ReassignTenant(token string, tenantID *uint64) error {
	affected, err := s.sessionRepo.UpdateTenant(token, tenantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reassign session tenant: %w", err)
	}
	if affected == 0 {
		return ErrInvalidSession
	}
	return nil
}

// Delete removes a session. Deleting a non-existent token is not an error.
func (s *SessionService) Delete(token string) error {
	if err := s.sessionRepo.DeleteByToken(token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session of a user.
func (s *SessionService) DeleteAllForUser(userID uint64) error {
	if err := s.sessionRepo.DeleteAllForUser(userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
