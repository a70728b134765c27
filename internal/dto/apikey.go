package dto

import (
	"time"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// APIKeyDTO is the management projection of an API key. The secret is
// never part of it; the raw key appears only in the creation response.
type APIKeyDTO struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	UserID     *uint64    `json:"user_id"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreatedAPIKeyDTO carries the raw key exactly once, at creation.
type CreatedAPIKeyDTO struct {
	APIKeyDTO
	Key string `json:"key"`
}

// ToAPIKeyDTO converts an API key to its DTO
func ToAPIKeyDTO(key models.APIKey) APIKeyDTO {
	return APIKeyDTO{
		ID:         key.ID,
		Name:       key.Name,
		UserID:     key.UserID,
		LastUsedAt: key.LastUsedAt,
		ExpiresAt:  key.ExpiresAt,
		IsActive:   key.IsActive,
		CreatedAt:  key.CreatedAt,
	}
}
