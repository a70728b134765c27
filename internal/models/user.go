package models

import (
	"time"
)

type User struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username      string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	PasswordHash  string    `gorm:"type:varchar(255);not null" json:"-"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:UserID" json:"-"`
	Sessions    []Session    `gorm:"foreignKey:UserID" json:"-"`
	APIKeys     []APIKey     `gorm:"foreignKey:UserID" json:"-"`
}
