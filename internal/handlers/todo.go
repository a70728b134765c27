package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamtodo/teamtodo-api/internal/dto"
	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/middleware"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/services"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

// TodoHandler coordinates todo HTTP handlers. Every operation runs
// under the caller's active organization; the tenant guard below the
// service layer keeps other organizations' rows out of reach.
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

func activeTenantID(c *gin.Context) (uint64, bool) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok || authCtx.Tenant == nil {
		return 0, false
	}
	return authCtx.Tenant.ID, true
}

// Create creates a todo in the active organization.
func (h *TodoHandler) Create(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "API key is not associated with a user")
		return
	}

	type CreateRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		TagIDs      []uint64   `json:"tag_ids"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	todo, err := h.todoService.Create(c.Request.Context(), services.CreateTodoInput{
		TenantID:    tenantID,
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		respondTodoError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTodoDTO(*todo))
}

// List returns a filtered page of the active organization's todos.
func (h *TodoHandler) List(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.TodoFilter{
		Search:     c.Query("search"),
		Pagination: params,
	}

	if status := c.Query("status"); status != "" {
		todoStatus := models.TodoStatus(status)
		if todoStatus != models.TodoStatusOpen && todoStatus != models.TodoStatusDone {
			apierrors.BadRequest(c, "status must be open or done")
			return
		}
		filter.Status = &todoStatus
	}

	if tagParam := c.Query("tag_id"); tagParam != "" {
		tagID, err := strconv.ParseUint(tagParam, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid tag ID")
			return
		}
		filter.TagID = &tagID
	}

	todos, total, err := h.todoService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToTodoListDTO(todos, params, total))
}

// Get returns a single todo.
func (h *TodoHandler) Get(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	todoID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid todo ID")
		return
	}

	todo, err := h.todoService.Get(c.Request.Context(), tenantID, todoID)
	if err != nil {
		respondTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTodoDTO(*todo))
}

// Update applies a partial update to a todo.
func (h *TodoHandler) Update(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	todoID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid todo ID")
		return
	}

	type UpdateRequest struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Status      *models.TodoStatus `json:"status"`
		DueDate     *time.Time         `json:"due_date"`
		ClearDue    bool               `json:"clear_due_date"`
		TagIDs      *[]uint64          `json:"tag_ids"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Status != nil && *req.Status != models.TodoStatusOpen && *req.Status != models.TodoStatusDone {
		apierrors.BadRequest(c, "status must be open or done")
		return
	}

	todo, err := h.todoService.Update(c.Request.Context(), tenantID, todoID, services.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDue,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		respondTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTodoDTO(*todo))
}

// Delete soft-deletes a todo and detaches its tags.
func (h *TodoHandler) Delete(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	todoID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid todo ID")
		return
	}

	if err := h.todoService.Delete(c.Request.Context(), tenantID, todoID); err != nil {
		respondTodoError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Todo deleted successfully",
	})
}

func respondTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTodoNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidTodoTitle),
		errors.Is(err, services.ErrUnknownTag):
		apierrors.ValidationFailed(c, err.Error(), nil)
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
