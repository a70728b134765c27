package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
)

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagNameTaken   = errors.New("a tag with this name already exists")
	ErrInvalidTagName = errors.New("tag name cannot be empty")
)

// TagService provides tenant-scoped tag CRUD under the tenant guard.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a new TagService.
func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// Create creates a tag. Names are unique per tenant.
func (s *TagService) Create(ctx context.Context, tenantID uint64, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTagName
	}

	var tag *models.Tag
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		tagRepo := repository.NewTagRepository(tx)
		if _, err := tagRepo.FindByName(name); err == nil {
			return ErrTagNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check tag name: %w", err)
		}

		tag = &models.Tag{
			TenantID: tenantID,
			Name:     name,
			Color:    color,
		}
		if err := tagRepo.Create(tag); err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// List lists the tenant's tags.
func (s *TagService) List(ctx context.Context, tenantID uint64) ([]models.Tag, error) {
	var tags []models.Tag
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		var err error
		tags, err = repository.NewTagRepository(tx).List()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Update renames or recolors a tag.
func (s *TagService) Update(ctx context.Context, tenantID, tagID uint64, name, color *string) (*models.Tag, error) {
	var tag *models.Tag
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		tagRepo := repository.NewTagRepository(tx)
		var err error
		tag, err = tagRepo.FindByID(tagID)
		if err != nil {
			return err
		}

		if name != nil {
			newName := strings.TrimSpace(*name)
			if newName == "" {
				return ErrInvalidTagName
			}
			if newName != tag.Name {
				if _, err := tagRepo.FindByName(newName); err == nil {
					return ErrTagNameTaken
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to check tag name: %w", err)
				}
				tag.Name = newName
			}
		}
		if color != nil {
			tag.Color = *color
		}

		if err := tagRepo.Update(tag); err != nil {
			return fmt.Errorf("failed to update tag: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag and its todo links.
func (s *TagService) Delete(ctx context.Context, tenantID, tagID uint64) error {
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		return repository.NewTagRepository(tx).Delete(tagID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}
