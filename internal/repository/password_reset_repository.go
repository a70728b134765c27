package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormPasswordResetRepository is a GORM implementation of PasswordResetRepository
type GormPasswordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

// Create creates a new reset token
func (r *GormPasswordResetRepository) Create(token *models.PasswordResetToken) error {
	return r.db.Create(token).Error
}

// FindValidByToken finds an unused, non-expired token
func (r *GormPasswordResetRepository) FindValidByToken(token string, now time.Time) (*models.PasswordResetToken, error) {
	var reset models.PasswordResetToken
	if err := r.db.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

// Consume rewrites the password digest, marks the token used and drops
// every session of the user, atomically. A half-applied reset would
// leave a changed password with live sessions, so any failure rolls the
// whole sequence back.
func (r *GormPasswordResetRepository) Consume(token *models.PasswordResetToken, passwordHash string, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", token.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return err
		}

		consumed := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", token.ID).
			Update("used_at", now)
		if consumed.Error != nil {
			return consumed.Error
		}
		if consumed.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("user_id = ?", token.UserID).Delete(&models.Session{}).Error
	})
}
