package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamtodo/teamtodo-api/internal/dto"
	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

// TagHandler coordinates tag HTTP handlers.
type TagHandler struct {
	tagService *services.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// Create creates a tag in the active organization. Tag names are
// unique per organization.
func (h *TagHandler) Create(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	type CreateRequest struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), tenantID, req.Name, req.Color)
	if err != nil {
		respondTagError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTagDTO(*tag))
}

// List returns all tags of the active organization.
func (h *TagHandler) List(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	tags, err := h.tagService.List(c.Request.Context(), tenantID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	tagDTOs := make([]dto.TagDTO, len(tags))
	for i, tag := range tags {
		tagDTOs[i] = dto.ToTagDTO(tag)
	}

	c.JSON(http.StatusOK, gin.H{"tags": tagDTOs})
}

// Update renames or recolors a tag.
func (h *TagHandler) Update(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	tagID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid tag ID")
		return
	}

	type UpdateRequest struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tag, err := h.tagService.Update(c.Request.Context(), tenantID, tagID, req.Name, req.Color)
	if err != nil {
		respondTagError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTagDTO(*tag))
}

// Delete removes a tag and its todo links.
func (h *TagHandler) Delete(c *gin.Context) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return
	}

	tagID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid tag ID")
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), tenantID, tagID); err != nil {
		respondTagError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tag deleted successfully",
	})
}

func respondTagError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTagNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTagNameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidTagName):
		apierrors.ValidationFailed(c, err.Error(), nil)
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
