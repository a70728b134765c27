package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

var (
	ErrTenantNotFound    = errors.New("organization not found")
	ErrInvalidTenantName = errors.New("organization name cannot be empty")
)

// TenantService provides business logic for tenant lifecycle operations.
type TenantService struct {
	tenantRepo     repository.TenantRepository
	membershipRepo repository.MembershipRepository
}

// NewTenantService creates a new TenantService.
func NewTenantService(tenantRepo repository.TenantRepository, membershipRepo repository.MembershipRepository) *TenantService {
	return &TenantService{
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
	}
}

// CreateTenantInput represents parameters to create a new tenant.
type CreateTenantInput struct {
	Name    string
	OwnerID uint64
}

// Create creates a tenant and assigns the creator as owner.
func (s *TenantService) Create(input CreateTenantInput) (*models.Tenant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidTenantName
	}

	slug, err := s.uniqueSlug(name)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		Name:     name,
		Slug:     slug,
		IsActive: true,
	}
	if err := s.tenantRepo.CreateWithOwner(tenant, input.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return tenant, nil
}

func (s *TenantService) uniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	slug := base
	for i := 2; ; i++ {
		taken, err := s.tenantRepo.SlugExists(slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Get returns a tenant with all of its members.
func (s *TenantService) Get(tenantID uint64) (*models.Tenant, []models.Membership, error) {
	tenant, err := s.tenantRepo.FindByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTenantNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	members, err := s.membershipRepo.ListByTenant(tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}

	return tenant, members, nil
}

// Rename updates the tenant's name. The slug is stable once assigned.
func (s *TenantService) Rename(tenantID uint64, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTenantName
	}

	tenant, err := s.tenantRepo.FindByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	tenant.Name = name
	if err := s.tenantRepo.Update(tenant); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return tenant, nil
}

// Delete removes a tenant and everything belonging to it.
func (s *TenantService) Delete(tenantID uint64) error {
	if _, err := s.tenantRepo.FindByID(tenantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTenantNotFound
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}

	if err := s.tenantRepo.Delete(tenantID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

// List lists every tenant. Admin surface.
func (s *TenantService) List() ([]models.Tenant, error) {
	tenants, err := s.tenantRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return tenants, nil
}
