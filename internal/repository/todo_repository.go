package repository

import (
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormTodoRepository is a GORM implementation of TodoRepository. It is
// constructed over a tenant-bound transaction; the tenant guard injects
// the tenant predicate into every statement here.
type GormTodoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new TodoRepository
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &GormTodoRepository{db: db}
}

// Create creates a new todo
func (r *GormTodoRepository) Create(todo *models.Todo) error {
	return r.db.Create(todo).Error
}

// FindByID finds a todo with its tags
func (r *GormTodoRepository) FindByID(id uint64) (*models.Todo, error) {
	var todo models.Todo
	if err := r.db.Preload("Tags").Preload("Creator").First(&todo, id).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

// List retrieves todos with filtering and pagination
func (r *GormTodoRepository) List(filter TodoFilter) ([]models.Todo, int64, error) {
	var todos []models.Todo

	query := r.db.Model(&models.Todo{})

	if filter.Status != nil {
		query = query.Where("todos.status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("todos.title LIKE ? OR todos.description LIKE ?", pattern, pattern)
	}
	if filter.TagID != nil {
		tagSubQuery := r.db.Table("todo_tags").
			Select("1").
			Where("todo_tags.todo_id = todos.id").
			Where("todo_tags.tag_id = ?", *filter.TagID)
		query = query.Where("EXISTS (?)", tagSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("todos.created_at DESC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	if err := listQuery.Preload("Tags").Find(&todos).Error; err != nil {
		return nil, 0, err
	}

	return todos, total, nil
}

// Update updates a todo
func (r *GormTodoRepository) Update(todo *models.Todo) error {
	return r.db.Save(todo).Error
}

// ReplaceTags replaces a todo's tag set
func (r *GormTodoRepository) ReplaceTags(todo *models.Todo, tags []models.Tag) error {
	return r.db.Model(todo).Association("Tags").Replace(tags)
}

// Delete soft deletes a todo and its tag links
func (r *GormTodoRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// The lookup goes through the guard; a todo of another tenant
		// is indistinguishable from an absent one.
		var todo models.Todo
		if err := tx.First(&todo, id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM todo_tags WHERE todo_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Todo{}, id).Error
	})
}
