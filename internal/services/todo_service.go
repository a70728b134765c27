package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
)

var (
	ErrTodoNotFound     = errors.New("todo not found")
	ErrInvalidTodoTitle = errors.New("todo title cannot be empty")
	ErrUnknownTag       = errors.New("one or more tags do not exist")
)

// TodoService provides tenant-scoped todo CRUD. Every operation runs
// under the tenant guard; a todo of another tenant is indistinguishable
// from an absent one.
type TodoService struct {
	db *gorm.DB
}

// NewTodoService creates a new TodoService.
func NewTodoService(db *gorm.DB) *TodoService {
	return &TodoService{db: db}
}

// CreateTodoInput represents parameters to create a todo.
type CreateTodoInput struct {
	TenantID    uint64
	CreatorID   uint64
	Title       string
	Description string
	DueDate     *time.Time
	TagIDs      []uint64
}

// Create creates a todo with its tag links.
func (s *TodoService) Create(ctx context.Context, input CreateTodoInput) (*models.Todo, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidTodoTitle
	}

	var todo *models.Todo
	err := database.WithTenant(ctx, s.db, input.TenantID, func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}

		todo = &models.Todo{
			TenantID:    input.TenantID,
			CreatorID:   input.CreatorID,
			Title:       input.Title,
			Description: input.Description,
			Status:      models.TodoStatusOpen,
			DueDate:     input.DueDate,
		}
		todoRepo := repository.NewTodoRepository(tx)
		if err := todoRepo.Create(todo); err != nil {
			return fmt.Errorf("failed to create todo: %w", err)
		}
		if len(tags) > 0 {
			if err := todoRepo.ReplaceTags(todo, tags); err != nil {
				return fmt.Errorf("failed to link tags: %w", err)
			}
			todo.Tags = tags
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// resolveTags loads the requested tags within the bound tenant. A
// foreign tenant's tag id resolves to nothing and fails the same way a
// nonexistent one does.
func resolveTags(tx *gorm.DB, tagIDs []uint64) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	tags, err := repository.NewTagRepository(tx).FindByIDs(tagIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	if len(tags) != len(tagIDs) {
		return nil, ErrUnknownTag
	}
	return tags, nil
}

// Get returns a todo with its tags.
func (s *TodoService) Get(ctx context.Context, tenantID, todoID uint64) (*models.Todo, error) {
	var todo *models.Todo
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		var err error
		todo, err = repository.NewTodoRepository(tx).FindByID(todoID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return todo, nil
}

// List returns todos matching the filter with the total count.
func (s *TodoService) List(ctx context.Context, tenantID uint64, filter repository.TodoFilter) ([]models.Todo, int64, error) {
	var (
		todos []models.Todo
		total int64
	)
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		var err error
		todos, total, err = repository.NewTodoRepository(tx).List(filter)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, total, nil
}

// UpdateTodoInput represents a partial todo update.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Status      *models.TodoStatus
	DueDate     *time.Time
	ClearDue    bool
	TagIDs      *[]uint64
}

// Update applies a partial update to a todo.
func (s *TodoService) Update(ctx context.Context, tenantID, todoID uint64, input UpdateTodoInput) (*models.Todo, error) {
	var todo *models.Todo
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		todoRepo := repository.NewTodoRepository(tx)
		var err error
		todo, err = todoRepo.FindByID(todoID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			if strings.TrimSpace(*input.Title) == "" {
				return ErrInvalidTodoTitle
			}
			todo.Title = *input.Title
		}
		if input.Description != nil {
			todo.Description = *input.Description
		}
		if input.Status != nil {
			todo.Status = *input.Status
		}
		if input.ClearDue {
			todo.DueDate = nil
		} else if input.DueDate != nil {
			todo.DueDate = input.DueDate
		}

		if err := todoRepo.Update(todo); err != nil {
			return fmt.Errorf("failed to update todo: %w", err)
		}

		if input.TagIDs != nil {
			tags, err := resolveTags(tx, *input.TagIDs)
			if err != nil {
				return err
			}
			if err := todoRepo.ReplaceTags(todo, tags); err != nil {
				return fmt.Errorf("failed to update tags: %w", err)
			}
			todo.Tags = tags
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}

// Delete removes a todo.
func (s *TodoService) Delete(ctx context.Context, tenantID, todoID uint64) error {
	err := database.WithTenant(ctx, s.db, tenantID, func(tx *gorm.DB) error {
		return repository.NewTodoRepository(tx).Delete(todoID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTodoNotFound
		}
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}
