package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormAPIKeyRepository is a GORM implementation of APIKeyRepository.
// Guarded methods inherit the tenant binding from the transaction they
// are constructed over.
type GormAPIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &GormAPIKeyRepository{db: db}
}

// Create creates a new API key under the tenant binding
func (r *GormAPIKeyRepository) Create(key *models.APIKey) error {
	return r.db.Create(key).Error
}

// ListValidationCandidates lists active, non-expired keys of active
// tenants. Runs with the guard bypassed: the key being validated is the
// only thing that determines the tenant, so no binding exists yet.
func (r *GormAPIKeyRepository) ListValidationCandidates(ctx context.Context, now time.Time) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.WithContext(database.BypassTenantGuard(ctx)).
		Joins("JOIN tenants ON tenants.id = api_keys.tenant_id").
		Where("api_keys.is_active = ?", true).
		Where("api_keys.expires_at IS NULL OR api_keys.expires_at > ?", now).
		Where("tenants.is_active = ?", true).
		Preload("User").
		Preload("Tenant").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// TouchLastUsed stamps last_used_at
func (r *GormAPIKeyRepository) TouchLastUsed(ctx context.Context, id uint64, now time.Time) error {
	return r.db.WithContext(database.BypassTenantGuard(ctx)).
		Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", now).Error
}

// FindByID finds a key within the bound tenant
func (r *GormAPIKeyRepository) FindByID(id uint64) (*models.APIKey, error) {
	var key models.APIKey
	if err := r.db.First(&key, id).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// ListByTenant lists the bound tenant's keys
func (r *GormAPIKeyRepository) ListByTenant() ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := r.db.Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Update updates a key within the bound tenant
func (r *GormAPIKeyRepository) Update(key *models.APIKey) error {
	return r.db.Save(key).Error
}

// Delete removes a key within the bound tenant
func (r *GormAPIKeyRepository) Delete(id uint64) error {
	return r.db.Delete(&models.APIKey{}, id).Error
}
