package models

import (
	"time"

	"gorm.io/gorm"
)

type TodoStatus string

const (
	TodoStatusOpen TodoStatus = "open"
	TodoStatusDone TodoStatus = "done"
)

type Todo struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	TenantID    uint64         `gorm:"not null;index" json:"tenant_id"`
	CreatorID   uint64         `gorm:"not null" json:"creator_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TodoStatus     `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	DueDate     *time.Time     `json:"due_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tenant  Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Creator User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Tags    []Tag  `gorm:"many2many:todo_tags;" json:"tags,omitempty"`
}

// TenantScoped marks todos as rows owned by a single tenant for the
// isolation guard.
func (Todo) TenantScoped() {}
