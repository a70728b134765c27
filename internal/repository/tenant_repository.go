package repository

import (
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormTenantRepository is a GORM implementation of TenantRepository
type GormTenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &GormTenantRepository{db: db}
}

// Create creates a new tenant
func (r *GormTenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

// CreateWithOwner creates the tenant and its owner membership in one
// transaction. A failure at either step leaves no trace: a tenant row
// without an owner would be unreachable by every membership check.
func (r *GormTenantRepository) CreateWithOwner(tenant *models.Tenant, ownerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		membership := models.Membership{
			TenantID: tenant.ID,
			UserID:   ownerID,
			Role:     models.RoleOwner,
		}
		return tx.Create(&membership).Error
	})
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(id uint64) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.First(&tenant, id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SlugExists reports whether a slug is already taken
func (r *GormTenantRepository) SlugExists(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Tenant{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates a tenant
func (r *GormTenantRepository) Update(tenant *models.Tenant) error {
	return r.db.Save(tenant).Error
}

// Delete deletes a tenant and every row belonging to it in one transaction
func (r *GormTenantRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Tenant data tables are guarded; the cascade runs with the
		// guard bypassed so the delete is not silently scoped away.
		cross := tx.WithContext(bypassContext(tx))
		// The join table has no tenant_id column; purge it through the
		// todos before they go.
		if err := cross.Exec(
			"DELETE FROM todo_tags WHERE todo_id IN (SELECT id FROM todos WHERE tenant_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := cross.Where("tenant_id = ?", id).Delete(&models.Todo{}).Error; err != nil {
			return err
		}
		if err := cross.Where("tenant_id = ?", id).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		if err := cross.Where("tenant_id = ?", id).Delete(&models.APIKey{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		// Sessions pointing at the tenant lose their active tenant.
		if err := tx.Model(&models.Session{}).Where("tenant_id = ?", id).
			Update("tenant_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tenant{}, id).Error
	})
}

// List lists all tenants
func (r *GormTenantRepository) List() ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}
