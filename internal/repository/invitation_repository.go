package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(invitation *models.Invitation) error {
	return r.db.Create(invitation).Error
}

// FindByID finds an invitation by ID
func (r *GormInvitationRepository) FindByID(id uint64) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := r.db.First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindByToken finds an invitation by token with tenant and inviter loaded
func (r *GormInvitationRepository) FindByToken(token string) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := r.db.Preload("Tenant").Preload("Inviter").
		Where("token = ?", token).
		First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// HasPending reports whether a live pending invitation exists for the
// pair. Expired rows keep status pending forever, so the expiry has to
// be part of the predicate or a lapsed invite would block re-inviting.
func (r *GormInvitationRepository) HasPending(tenantID uint64, email string, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Invitation{}).
		Where("tenant_id = ? AND email = ? AND status = ? AND expires_at > ?",
			tenantID, email, models.InvitationPending, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByTenant lists a tenant's invitations with inviters loaded
func (r *GormInvitationRepository) ListByTenant(tenantID uint64) ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := r.db.Preload("Inviter").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// Transition moves an invitation out of pending. The status predicate
// makes the state machine atomic: a transition races at most one winner
// and every loser observes zero rows affected.
func (r *GormInvitationRepository) Transition(id uint64, to models.InvitationStatus, acceptedAt *time.Time) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if acceptedAt != nil {
		updates["accepted_at"] = *acceptedAt
	}
	result := r.db.Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.InvitationPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// AcceptWithMembership transitions to accepted and creates or upgrades
// the membership in one transaction.
func (r *GormInvitationRepository) AcceptWithMembership(invitation *models.Invitation, userID uint64, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		accepted := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationPending).
			Updates(map[string]interface{}{
				"status":      models.InvitationAccepted,
				"accepted_at": now,
			})
		if accepted.Error != nil {
			return accepted.Error
		}
		if accepted.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// An existing member keeps their row but picks up the invited
		// role, unless they are the owner. The guard lives here rather
		// than in a conflict clause: mysql's ON DUPLICATE KEY UPDATE
		// cannot carry the role predicate.
		var existing models.Membership
		err := tx.Where("tenant_id = ? AND user_id = ?", invitation.TenantID, userID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.Role == models.RoleOwner {
				return nil
			}
			return tx.Model(&existing).Update("role", invitation.Role).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			membership := models.Membership{
				TenantID:  invitation.TenantID,
				UserID:    userID,
				Role:      invitation.Role,
				CreatedAt: now,
			}
			return tx.Create(&membership).Error
		default:
			return err
		}
	})
}
