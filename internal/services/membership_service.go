package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
)

var (
	ErrNotAMember            = errors.New("user is not a member of this organization")
	ErrInsufficientRole      = errors.New("only owners and admins can perform this action")
	ErrCannotRemoveOwner     = errors.New("cannot remove the organization owner")
	ErrCannotChangeOwnerRole = errors.New("cannot change the owner's role")
	ErrOnlyOwnerCanTransfer  = errors.New("only the owner can transfer ownership")
	ErrOwnerCannotLeave      = errors.New("the owner cannot leave; transfer ownership first")
	ErrInvalidMembershipRole = errors.New("role must be admin or member")
	ErrAlreadyMember         = errors.New("user is already a member of this organization")
)

// MembershipService enforces the role rules of a tenant's member set,
// including the single-owner invariant.
type MembershipService struct {
	membershipRepo repository.MembershipRepository
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(membershipRepo repository.MembershipRepository) *MembershipService {
	return &MembershipService{membershipRepo: membershipRepo}
}

// ListOrganizations returns the memberships of a user with tenants loaded.
func (s *MembershipService) ListOrganizations(userID uint64) ([]models.Membership, error) {
	memberships, err := s.membershipRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetRole returns the user's role in the tenant, or nil when not a member.
func (s *MembershipService) GetRole(userID, tenantID uint64) (*models.MembershipRole, error) {
	membership, err := s.membershipRepo.Find(tenantID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return &membership.Role, nil
}

// IsMember reports whether the user belongs to the tenant.
func (s *MembershipService) IsMember(userID, tenantID uint64) (bool, error) {
	role, err := s.GetRole(userID, tenantID)
	if err != nil {
		return false, err
	}
	return role != nil, nil
}

// requireManager returns the actor's membership if they are owner or admin.
func (s *MembershipService) requireManager(actorID, tenantID uint64) (*models.Membership, error) {
	membership, err := s.membershipRepo.Find(tenantID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	if membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
		return nil, ErrInsufficientRole
	}
	return membership, nil
}

// AddMember adds a user to the tenant with role admin or member.
func (s *MembershipService) AddMember(userID, tenantID uint64, role models.MembershipRole) error {
	if role != models.RoleAdmin && role != models.RoleMember {
		return ErrInvalidMembershipRole
	}

	if _, err := s.membershipRepo.Find(tenantID, userID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	membership := &models.Membership{
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
	}
	if err := s.membershipRepo.Create(membership); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a member. Only owners and admins may call, and
// the owner can never be removed this way, regardless of actor.
func (s *MembershipService) RemoveMember(actorID, tenantID, targetUserID uint64) error {
	if _, err := s.requireManager(actorID, tenantID); err != nil {
		return err
	}

	target, err := s.membershipRepo.Find(tenantID, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAMember
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if target.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	if err := s.membershipRepo.Delete(tenantID, targetUserID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// UpdateRole changes a member's role to admin or member. The owner's
// role never changes through this path; the owner slot only moves via
// TransferOwnership.
func (s *MembershipService) UpdateRole(actorID, tenantID, targetUserID uint64, newRole models.MembershipRole) error {
	if newRole != models.RoleAdmin && newRole != models.RoleMember {
		return ErrInvalidMembershipRole
	}

	if _, err := s.requireManager(actorID, tenantID); err != nil {
		return err
	}

	target, err := s.membershipRepo.Find(tenantID, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAMember
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if target.Role == models.RoleOwner {
		return ErrCannotChangeOwnerRole
	}

	if err := s.membershipRepo.UpdateRole(tenantID, targetUserID, newRole); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// TransferOwnership atomically demotes the current owner to admin and
// promotes an existing member to owner. Only the current owner may call;
// the target must already be a member.
func (s *MembershipService) TransferOwnership(actorID, tenantID, newOwnerID uint64) error {
	actor, err := s.membershipRepo.Find(tenantID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAMember
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}
	if actor.Role != models.RoleOwner {
		return ErrOnlyOwnerCanTransfer
	}
	if newOwnerID == actorID {
		return nil
	}

	if _, err := s.membershipRepo.Find(tenantID, newOwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAMember
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if err := s.membershipRepo.TransferOwnership(tenantID, actorID, newOwnerID); err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}
	return nil
}

// Leave removes the caller's own membership. The owner must transfer
// first. When the caller's sessions were pointing at the tenant they
// left, they are handed a substitute active tenant (or none) as part of
// the same operation.
func (s *MembershipService) Leave(userID, tenantID uint64) (*uint64, error) {
	membership, err := s.membershipRepo.Find(tenantID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}

	if membership.Role == models.RoleOwner {
		return nil, ErrOwnerCannotLeave
	}

	substitute, err := s.membershipRepo.LeaveWithReassignment(tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave organization: %w", err)
	}
	return substitute, nil
}
