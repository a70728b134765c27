package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/dto"
	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

// AdminHandler coordinates the operator surface, reachable only with
// the admin secret.
type AdminHandler struct {
	tenantService *services.TenantService
	userRepo      repository.UserRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(tenantService *services.TenantService, userRepo repository.UserRepository) *AdminHandler {
	return &AdminHandler{
		tenantService: tenantService,
		userRepo:      userRepo,
	}
}

// ListOrganizations returns every organization, active or not.
func (h *AdminHandler) ListOrganizations(c *gin.Context) {
	tenants, err := h.tenantService.List()
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	organizations := make([]dto.OrganizationDTO, len(tenants))
	for i, tenant := range tenants {
		organizations[i] = dto.ToOrganizationDTO(tenant)
	}

	c.JSON(http.StatusOK, gin.H{"organizations": organizations})
}

// DeleteUser removes a user with their memberships, sessions and API
// keys.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if _, err := h.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	if err := h.userRepo.Delete(userID); err != nil {
		apierrors.InternalError(c, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
