package models

import (
	"time"

	"gorm.io/gorm"
)

type Tag struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	TenantID  uint64         `gorm:"not null;uniqueIndex:idx_tags_tenant_name" json:"tenant_id"`
	Name      string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_tags_tenant_name" json:"name"`
	Color     string         `gorm:"type:varchar(20)" json:"color"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Todos  []Todo `gorm:"many2many:todo_tags;" json:"-"`
}

// TenantScoped marks tags as rows owned by a single tenant for the
// isolation guard.
func (Tag) TenantScoped() {}
