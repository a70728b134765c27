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
	"github.com/teamtodo/teamtodo-api/internal/services"
)

// APIKeyHandler coordinates API key management handlers. Keys belong
// to the caller's active organization; managing them requires the
// owner or admin role there.
type APIKeyHandler struct {
	apiKeyService     *services.APIKeyService
	membershipService *services.MembershipService
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(apiKeyService *services.APIKeyService, membershipService *services.MembershipService) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService:     apiKeyService,
		membershipService: membershipService,
	}
}

// requireManager resolves the caller's active tenant and checks the
// owner/admin role there. API key management is never available to a
// plain member or through an API key of another organization.
func (h *APIKeyHandler) requireManager(c *gin.Context) (uint64, uint64, bool) {
	tenantID, ok := activeTenantID(c)
	if !ok {
		apierrors.Forbidden(c, "no active organization")
		return 0, 0, false
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "API key is not associated with a user")
		return 0, 0, false
	}

	role, err := h.membershipService.GetRole(userID, tenantID)
	if err != nil {
		apierrors.InternalError(c, "")
		return 0, 0, false
	}
	if role == nil || (*role != models.RoleOwner && *role != models.RoleAdmin) {
		apierrors.Forbidden(c, "Only organization owners and admins can manage API keys")
		return 0, 0, false
	}

	return tenantID, userID, true
}

// Create mints an API key for the active organization. The raw key is
// in this response and nowhere else.
func (h *APIKeyHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requireManager(c)
	if !ok {
		return
	}

	type CreateRequest struct {
		Name       string     `json:"name" binding:"required"`
		ExpiresAt  *time.Time `json:"expires_at"`
		TenantOnly bool       `json:"tenant_only"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	keyUserID := &userID
	if req.TenantOnly {
		keyUserID = nil
	}

	rawKey, key, err := h.apiKeyService.CreateKey(c.Request.Context(), services.CreateKeyInput{
		TenantID:  tenantID,
		UserID:    keyUserID,
		Name:      req.Name,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		apierrors.ValidationFailed(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedAPIKeyDTO{
		APIKeyDTO: dto.ToAPIKeyDTO(*key),
		Key:       rawKey,
	})
}

// List returns the active organization's API keys, digests excluded.
func (h *APIKeyHandler) List(c *gin.Context) {
	tenantID, _, ok := h.requireManager(c)
	if !ok {
		return
	}

	keys, err := h.apiKeyService.ListKeys(c.Request.Context(), tenantID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	keyDTOs := make([]dto.APIKeyDTO, len(keys))
	for i, key := range keys {
		keyDTOs[i] = dto.ToAPIKeyDTO(key)
	}

	c.JSON(http.StatusOK, gin.H{"api_keys": keyDTOs})
}

// Revoke deactivates a key without deleting its audit trail.
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	tenantID, _, ok := h.requireManager(c)
	if !ok {
		return
	}

	keyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid API key ID")
		return
	}

	if err := h.apiKeyService.RevokeKey(c.Request.Context(), tenantID, keyID); err != nil {
		respondAPIKeyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "API key revoked successfully",
	})
}

// Delete removes a key permanently.
func (h *APIKeyHandler) Delete(c *gin.Context) {
	tenantID, _, ok := h.requireManager(c)
	if !ok {
		return
	}

	keyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid API key ID")
		return
	}

	if err := h.apiKeyService.DeleteKey(c.Request.Context(), tenantID, keyID); err != nil {
		respondAPIKeyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "API key deleted successfully",
	})
}

func respondAPIKeyError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrAPIKeyNotFound) {
		apierrors.NotFound(c, err.Error())
		return
	}
	apierrors.InternalError(c, "Internal server error")
}
