package dto

import (
	"time"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// OrganizationDTO is the public projection of a tenant.
type OrganizationDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.MembershipRole `json:"role"`
}

// OrganizationMemberDTO represents a member in an organization
type OrganizationMemberDTO struct {
	User      UserDTO               `json:"user"`
	Role      models.MembershipRole `json:"role"`
	JoinedAt  time.Time             `json:"joined_at"`
}

// OrganizationDetailDTO represents detailed organization information
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members  []OrganizationMemberDTO `json:"members"`
	YourRole models.MembershipRole   `json:"your_role"`
}

// ToOrganizationDTO converts a tenant to its DTO
func ToOrganizationDTO(tenant models.Tenant) OrganizationDTO {
	return OrganizationDTO{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Slug:      tenant.Slug,
		IsActive:  tenant.IsActive,
		CreatedAt: tenant.CreatedAt,
	}
}

// ToOrganizationWithRoleDTO converts a membership to a DTO with role
func ToOrganizationWithRoleDTO(membership models.Membership) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(membership.Tenant),
		Role:            membership.Role,
	}
}

// ToOrganizationMemberDTO converts a membership to a member DTO
func ToOrganizationMemberDTO(membership models.Membership) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:     ToUserDTO(membership.User),
		Role:     membership.Role,
		JoinedAt: membership.CreatedAt,
	}
}

// ToOrganizationDetailDTO converts a tenant with members to a detailed DTO
func ToOrganizationDetailDTO(tenant models.Tenant, members []models.Membership, yourRole models.MembershipRole) OrganizationDetailDTO {
	memberDTOs := make([]OrganizationMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToOrganizationMemberDTO(member)
	}

	return OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(tenant),
		Members:         memberDTOs,
		YourRole:        yourRole,
	}
}
