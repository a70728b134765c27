package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation invites an email address into a tenant. Status moves from
// pending to exactly one of accepted/declined/revoked and never again.
type Invitation struct {
	ID         uint64           `gorm:"primarykey" json:"id"`
	TenantID   uint64           `gorm:"not null;index" json:"tenant_id"`
	Email      string           `gorm:"type:varchar(255);not null;index" json:"email"`
	Role       MembershipRole   `gorm:"type:varchar(20);not null" json:"role"`
	Token      string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	InvitedBy  uint64           `gorm:"not null" json:"invited_by"`
	ExpiresAt  time.Time        `gorm:"not null" json:"expires_at"`
	Status     InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptedAt *time.Time       `json:"accepted_at"`
	CreatedAt  time.Time        `json:"created_at"`

	// Relations
	Tenant  Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Inviter User   `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
}

// Expired reports whether the invitation is past its expiry. Computed,
// never stored.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
