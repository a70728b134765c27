package models

import "time"

// Session is a server-side login session. TenantID is the user's active
// tenant and may be unset for a user with no memberships yet; when set it
// must reference a tenant the user is a member of.
type Session struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	UserID       uint64    `gorm:"not null;index" json:"user_id"`
	TenantID     *uint64   `gorm:"index" json:"tenant_id"`
	SessionToken string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	User   User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}
