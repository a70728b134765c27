package models

import "time"

// APIKey is a long-lived tenant credential. UserID is optional: a key
// without a user is tenant-scoped only and cannot act on user-scoped
// operations. The secret is stored as a one-way digest.
type APIKey struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	TenantID   uint64     `gorm:"not null;index" json:"tenant_id"`
	UserID     *uint64    `gorm:"index" json:"user_id"`
	KeyHash    string     `gorm:"type:varchar(255);not null" json:"-"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TenantScoped marks API keys as rows owned by a single tenant for the
// isolation guard.
func (APIKey) TenantScoped() {}
