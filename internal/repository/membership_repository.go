package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// ErrOwnerNotDemoted is returned when the previous owner's row was not
// updated during an ownership transfer.
var ErrOwnerNotDemoted = errors.New("membership repository: previous owner not demoted")

// ErrOwnerNotPromoted is returned when the new owner's row was not
// updated during an ownership transfer.
var ErrOwnerNotPromoted = errors.New("membership repository: new owner not promoted")

// GormMembershipRepository is a GORM implementation of MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Create adds a membership
func (r *GormMembershipRepository) Create(membership *models.Membership) error {
	return r.db.Create(membership).Error
}

// Find finds a specific membership
func (r *GormMembershipRepository) Find(tenantID, userID uint64) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindOwner finds the owner membership of a tenant
func (r *GormMembershipRepository) FindOwner(tenantID uint64) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.Where("tenant_id = ? AND role = ?", tenantID, models.RoleOwner).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// UpdateRole changes a member's role
func (r *GormMembershipRepository) UpdateRole(tenantID, userID uint64, role models.MembershipRole) error {
	return r.db.Model(&models.Membership{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Update("role", role).Error
}

// TransferOwnership demotes the previous owner to admin and promotes the
// new owner in a single transaction. The single-owner invariant spans
// both rows, so the two updates are never callable separately.
func (r *GormMembershipRepository) TransferOwnership(tenantID, previousOwnerID, newOwnerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		demote := tx.Model(&models.Membership{}).
			Where("tenant_id = ? AND user_id = ? AND role = ?", tenantID, previousOwnerID, models.RoleOwner).
			Update("role", models.RoleAdmin)
		if demote.Error != nil {
			return demote.Error
		}
		if demote.RowsAffected == 0 {
			return ErrOwnerNotDemoted
		}

		promote := tx.Model(&models.Membership{}).
			Where("tenant_id = ? AND user_id = ?", tenantID, newOwnerID).
			Update("role", models.RoleOwner)
		if promote.Error != nil {
			return promote.Error
		}
		if promote.RowsAffected == 0 {
			return fmt.Errorf("%w: user %d", ErrOwnerNotPromoted, newOwnerID)
		}

		return nil
	})
}

// Delete removes a membership
func (r *GormMembershipRepository) Delete(tenantID, userID uint64) error {
	return r.db.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&models.Membership{}).Error
}

// LeaveWithReassignment deletes the membership and hands sessions that
// were active on the left tenant a substitute, atomically. Without the
// reassignment a live session could keep a tenant binding its user is
// no longer a member of.
func (r *GormMembershipRepository) LeaveWithReassignment(tenantID, userID uint64) (*uint64, error) {
	var substitute *uint64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		var remaining models.Membership
		err := tx.Where("user_id = ?", userID).
			Order("created_at ASC").
			First(&remaining).Error
		switch {
		case err == nil:
			substitute = &remaining.TenantID
		case errors.Is(err, gorm.ErrRecordNotFound):
			substitute = nil
		default:
			return err
		}

		return tx.Model(&models.Session{}).
			Where("user_id = ? AND tenant_id = ?", userID, tenantID).
			Update("tenant_id", substitute).Error
	})
	if err != nil {
		return nil, err
	}
	return substitute, nil
}

// ListByUser lists a user's memberships with tenants preloaded
func (r *GormMembershipRepository) ListByUser(userID uint64) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Preload("Tenant").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListByTenant lists a tenant's memberships with users preloaded
func (r *GormMembershipRepository) ListByTenant(tenantID uint64) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Preload("User").
		Where("tenant_id = ?", tenantID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
