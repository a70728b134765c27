package models

import "time"

type MembershipRole string

const (
	RoleOwner  MembershipRole = "owner"
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// Membership links a user to a tenant with a role. Exactly one member of
// a tenant holds RoleOwner at any time; the owner slot only moves through
// ownership transfer.
type Membership struct {
	TenantID  uint64         `gorm:"primarykey" json:"tenant_id"`
	UserID    uint64         `gorm:"primarykey" json:"user_id"`
	Role      MembershipRole `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time      `json:"created_at"`

	// Relations
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
