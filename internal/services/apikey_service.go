package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/hasher"
	"github.com/teamtodo/teamtodo-api/internal/logger"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

var (
	// ErrInvalidAPIKey covers unknown, inactive and expired keys and
	// keys of inactive tenants. One outcome for all of them.
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrAPIKeyNotFound is returned for key management lookups that
	// miss within the bound tenant.
	ErrAPIKeyNotFound = errors.New("API key not found")
)

// APIKeyService validates bearer API keys and manages a tenant's keys.
type APIKeyService struct {
	db      *gorm.DB
	keyRepo repository.APIKeyRepository
	hash    *hasher.Hasher
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db *gorm.DB, keyRepo repository.APIKeyRepository, hash *hasher.Hasher) *APIKeyService {
	return &APIKeyService{
		db:      db,
		keyRepo: keyRepo,
		hash:    hash,
	}
}

// Validate resolves a raw bearer key into its API key record with user
// and tenant loaded. Keys are stored as one-way digests, so validation
// scans every candidate and verifies each with the hasher. Cost grows
// linearly with the active key count; acceptable at current scale.
func (s *APIKeyService) Validate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	if !strings.HasPrefix(rawKey, constants.APIKeyPrefix) {
		return nil, ErrInvalidAPIKey
	}

	candidates, err := s.keyRepo.ListValidationCandidates(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate keys: %w", err)
	}

	for i := range candidates {
		key := &candidates[i]
		if !s.hash.Verify(rawKey, key.KeyHash) {
			continue
		}

		// Best-effort: a failed timestamp must not fail the request.
		if err := s.keyRepo.TouchLastUsed(ctx, key.ID, time.Now()); err != nil {
			logger.L().Warn("failed to update api key last_used_at",
				zap.Uint64("api_key_id", key.ID),
				zap.Error(err),
			)
		}
		return key, nil
	}

	return nil, ErrInvalidAPIKey
}

// CreateKeyInput holds parameters for minting a new API key.
type CreateKeyInput struct {
	TenantID  uint64
	UserID    *uint64
	Name      string
	ExpiresAt *time.Time
}

// CreateKey mints a key under the tenant binding. The raw key is
// returned exactly once; only its digest is stored.
func (s *APIKeyService) CreateKey(ctx context.Context, input CreateKeyInput) (string, *models.APIKey, error) {
	if strings.TrimSpace(input.Name) == "" {
		return "", nil, fmt.Errorf("key name is required")
	}

	rawKey, err := utils.GenerateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key: %w", err)
	}

	digest, err := s.hash.Hash(rawKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash key: %w", err)
	}

	key := &models.APIKey{
		TenantID:  input.TenantID,
		UserID:    input.UserID,
		KeyHash:   digest,
		Name:      input.Name,
		ExpiresAt: input.ExpiresAt,
		IsActive:  true,
	}

	err = database.WithTenant(ctx, s.db, input.TenantID, func(tx *gorm.DB) error {
		return repository.NewAPIKeyRepository(tx).Create(key)
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create api key: %w", err)
	}

	return rawKey, key, nil
}

// ListKeys lists the tenant's keys.
func (s *APIKeyService) ListKeys(ctx context.Context, tenantID uint64) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		var err error
		keys, err = repository.NewAPIKeyRepository(tx).ListByTenant()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// RevokeKey flips is_active off without deleting the record.
func (s *APIKeyService) RevokeKey(ctx context.Context, tenantID, keyID uint64) error {
	return database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		repo := repository.NewAPIKeyRepository(tx)
		key, err := repo.FindByID(keyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAPIKeyNotFound
			}
			return err
		}
		key.IsActive = false
		return repo.Update(key)
	})
}

// DeleteKey removes a key permanently.
func (s *APIKeyService) DeleteKey(ctx context.Context, tenantID, keyID uint64) error {
	return database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		repo := repository.NewAPIKeyRepository(tx)
		if _, err := repo.FindByID(keyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAPIKeyNotFound
			}
			return err
		}
		return repo.Delete(keyID)
	})
}
