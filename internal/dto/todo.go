package dto

import (
	"time"

	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

// TagDTO is the public projection of a tag.
type TagDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TodoDTO is the public projection of a todo.
type TodoDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TodoStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	CreatorID   uint64            `json:"creator_id"`
	Tags        []TagDTO          `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TodoListDTO wraps a todo page with its pagination metadata.
type TodoListDTO struct {
	Todos      []TodoDTO                `json:"todos"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToTagDTO converts a tag to its DTO
func ToTagDTO(tag models.Tag) TagDTO {
	return TagDTO{
		ID:    tag.ID,
		Name:  tag.Name,
		Color: tag.Color,
	}
}

// ToTodoDTO converts a todo to its DTO
func ToTodoDTO(todo models.Todo) TodoDTO {
	tags := make([]TagDTO, len(todo.Tags))
	for i, tag := range todo.Tags {
		tags[i] = ToTagDTO(tag)
	}

	return TodoDTO{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Status:      todo.Status,
		DueDate:     todo.DueDate,
		CreatorID:   todo.CreatorID,
		Tags:        tags,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

// ToTodoListDTO converts a todo page to its DTO
func ToTodoListDTO(todos []models.Todo, params utils.PaginationParams, total int64) TodoListDTO {
	dtos := make([]TodoDTO, len(todos))
	for i, todo := range todos {
		dtos[i] = ToTodoDTO(todo)
	}

	return TodoListDTO{
		Todos: dtos,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
