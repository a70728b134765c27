package models

import (
	"time"
)

type Tenant struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members []Membership `gorm:"foreignKey:TenantID" json:"members,omitempty"`
	Todos   []Todo       `gorm:"foreignKey:TenantID" json:"-"`
	Tags    []Tag        `gorm:"foreignKey:TenantID" json:"-"`
	APIKeys []APIKey     `gorm:"foreignKey:TenantID" json:"-"`
}
