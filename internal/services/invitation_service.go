package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/mailer"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

var (
	ErrInvitationNotFound       = errors.New("invitation not found")
	ErrDuplicateInvitation      = errors.New("a pending invitation already exists for this email")
	ErrInviteeAlreadyMember     = errors.New("this email already belongs to a member")
	ErrInvitationExpired        = errors.New("this invitation has expired")
	ErrInvitationAlreadyHandled = errors.New("this invitation has already been accepted or declined")
	ErrInvitationNotRevocable   = errors.New("invitation not found or cannot be revoked")
)

// InvitationPublicView is the unauthenticated projection of an
// invitation backing the pre-signup landing page. It exposes display
// data only, never internal ids or the inviter's email.
type InvitationPublicView struct {
	OrganizationName string                  `json:"organization_name"`
	InviterName      string                  `json:"inviter_name"`
	Role             models.MembershipRole   `json:"role"`
	ExpiresAt        time.Time               `json:"expires_at"`
	Expired          bool                    `json:"expired"`
	Status           models.InvitationStatus `json:"status"`
}

// InvitationService runs the invitation state machine: pending is the
// only non-terminal state, and each invitation leaves it exactly once.
type InvitationService struct {
	invitationRepo repository.InvitationRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	memberships    *MembershipService
	sender         mailer.EmailSender
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	memberships *MembershipService,
	sender mailer.EmailSender,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		memberships:    memberships,
		sender:         sender,
	}
}

// CreateInvitationInput holds parameters for creating an invitation.
type CreateInvitationInput struct {
	ActorID  uint64
	TenantID uint64
	Email    string
	Role     models.MembershipRole
}

// Create invites an email into the tenant. Owner/admin only. Rejects a
// second pending invitation for the same email and emails that already
// belong to a member. Expiry is fixed at creation + 7 days.
func (s *InvitationService) Create(input CreateInvitationInput) (*models.Invitation, error) {
	if input.Role != models.RoleAdmin && input.Role != models.RoleMember {
		return nil, ErrInvalidMembershipRole
	}

	email := strings.TrimSpace(input.Email)
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	if _, err := s.memberships.requireManager(input.ActorID, input.TenantID); err != nil {
		return nil, err
	}

	pending, err := s.invitationRepo.HasPending(input.TenantID, email, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to check pending invitations: %w", err)
	}
	if pending {
		return nil, ErrDuplicateInvitation
	}

	if user, err := s.userRepo.FindByEmail(email); err == nil {
		member, err := s.memberships.IsMember(user.ID, input.TenantID)
		if err != nil {
			return nil, err
		}
		if member {
			return nil, ErrInviteeAlreadyMember
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check invitee: %w", err)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	invitation := &models.Invitation{
		TenantID:  input.TenantID,
		Email:     email,
		Role:      input.Role,
		Token:     token,
		InvitedBy: input.ActorID,
		ExpiresAt: time.Now().AddDate(0, 0, constants.InvitationLifetimeDays),
		Status:    models.InvitationPending,
	}

	if err := s.invitationRepo.Create(invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	mailer.Dispatch(s.sender,
		email,
		"You have been invited to an organization",
		fmt.Sprintf("Open this link to respond to your invitation: /invitations/%s", token),
		fmt.Sprintf(`<p>You have been invited. <a href="/invitations/%s">Respond here</a>.</p>`, token),
	)

	return invitation, nil
}

// List returns a tenant's invitations with inviter display data.
// Owner/admin only.
func (s *InvitationService) List(actorID, tenantID uint64) ([]models.Invitation, error) {
	if _, err := s.memberships.requireManager(actorID, tenantID); err != nil {
		return nil, err
	}

	invitations, err := s.invitationRepo.ListByTenant(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// Revoke cancels a pending invitation. Owner/admin only. Terminal
// invitations cannot be revoked.
func (s *InvitationService) Revoke(actorID, invitationID uint64) error {
	invitation, err := s.invitationRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotRevocable
		}
		return fmt.Errorf("failed to find invitation: %w", err)
	}

	if _, err := s.memberships.requireManager(actorID, invitation.TenantID); err != nil {
		return err
	}

	affected, err := s.invitationRepo.Transition(invitationID, models.InvitationRevoked, nil)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	if affected == 0 {
		return ErrInvitationNotRevocable
	}
	return nil
}

// GetByToken returns the public projection of an invitation. No
// authentication required: the token itself is the capability.
func (s *InvitationService) GetByToken(token string) (*InvitationPublicView, error) {
	invitation, err := s.invitationRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	return &InvitationPublicView{
		OrganizationName: invitation.Tenant.Name,
		InviterName:      invitation.Inviter.Username,
		Role:             invitation.Role,
		ExpiresAt:        invitation.ExpiresAt,
		Expired:          invitation.Expired(time.Now()),
		Status:           invitation.Status,
	}, nil
}

// Accept joins the caller to the invitation's tenant with the invited
// role and returns the tenant id so the caller can switch to it. Fails
// on expired and on non-pending invitations with distinct errors.
func (s *InvitationService) Accept(userID uint64, token string) (uint64, error) {
	invitation, err := s.resolvePending(token)
	if err != nil {
		return 0, err
	}

	if err := s.invitationRepo.AcceptWithMembership(invitation, userID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInvitationAlreadyHandled
		}
		return 0, fmt.Errorf("failed to accept invitation: %w", err)
	}

	return invitation.TenantID, nil
}

// Decline marks the invitation declined. Membership is untouched.
func (s *InvitationService) Decline(userID uint64, token string) error {
	invitation, err := s.resolvePending(token)
	if err != nil {
		return err
	}

	affected, err := s.invitationRepo.Transition(invitation.ID, models.InvitationDeclined, nil)
	if err != nil {
		return fmt.Errorf("failed to decline invitation: %w", err)
	}
	if affected == 0 {
		return ErrInvitationAlreadyHandled
	}
	return nil
}

func (s *InvitationService) resolvePending(token string) (*models.Invitation, error) {
	invitation, err := s.invitationRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	if invitation.Status != models.InvitationPending {
		return nil, ErrInvitationAlreadyHandled
	}
	if invitation.Expired(time.Now()) {
		return nil, ErrInvitationExpired
	}
	return invitation, nil
}
