package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormSessionRepository is a GORM implementation of SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

// Create creates a new session
func (r *GormSessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// FindValidByToken finds a non-expired session by token. Expiry is part
// of the lookup so an expired session is indistinguishable from an
// absent one.
func (r *GormSessionRepository) FindValidByToken(token string, now time.Time) (*models.Session, error) {
	var session models.Session
	if err := r.db.Preload("User").Preload("Tenant").
		Where("session_token = ? AND expires_at > ?", token, now).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateTenant reassigns a non-expired session's active tenant
func (r *GormSessionRepository) UpdateTenant(token string, tenantID *uint64, now time.Time) (int64, error) {
	result := r.db.Model(&models.Session{}).
		Where("session_token = ? AND expires_at > ?", token, now).
		Update("tenant_id", tenantID)
	return result.RowsAffected, result.Error
}

// DeleteByToken deletes a session; idempotent
func (r *GormSessionRepository) DeleteByToken(token string) error {
	return r.db.Where("session_token = ?", token).Delete(&models.Session{}).Error
}

// DeleteAllForUser deletes every session of a user; idempotent
func (r *GormSessionRepository) DeleteAllForUser(userID uint64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Session{}).Error
}
