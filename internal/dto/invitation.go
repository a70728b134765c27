package dto

import (
	"time"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// InvitationDTO is the management projection of an invitation, for
// owners and admins of the inviting organization.
type InvitationDTO struct {
	ID           uint64                  `json:"id"`
	Email        string                  `json:"email"`
	Role         models.MembershipRole   `json:"role"`
	Status       models.InvitationStatus `json:"status"`
	Token        string                  `json:"token"`
	InviterName  string                  `json:"inviter_name"`
	InviterEmail string                  `json:"inviter_email"`
	ExpiresAt    time.Time               `json:"expires_at"`
	AcceptedAt   *time.Time              `json:"accepted_at"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ToInvitationDTO converts an invitation to its management DTO
func ToInvitationDTO(invitation models.Invitation) InvitationDTO {
	return InvitationDTO{
		ID:           invitation.ID,
		Email:        invitation.Email,
		Role:         invitation.Role,
		Status:       invitation.Status,
		Token:        invitation.Token,
		InviterName:  invitation.Inviter.Username,
		InviterEmail: invitation.Inviter.Email,
		ExpiresAt:    invitation.ExpiresAt,
		AcceptedAt:   invitation.AcceptedAt,
		CreatedAt:    invitation.CreatedAt,
	}
}
