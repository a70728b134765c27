package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamtodo/teamtodo-api/internal/dto"
	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/middleware"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

// OrganizationHandler coordinates organization and membership HTTP
// handlers. Invitations live in InvitationHandler.
type OrganizationHandler struct {
	tenantService     *services.TenantService
	membershipService *services.MembershipService
	sessionService    *services.SessionService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(tenantService *services.TenantService, membershipService *services.MembershipService, sessionService *services.SessionService) *OrganizationHandler {
	return &OrganizationHandler{
		tenantService:     tenantService,
		membershipService: membershipService,
		sessionService:    sessionService,
	}
}

// Create creates an organization owned by the caller.
func (h *OrganizationHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenantService.Create(services.CreateTenantInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidTenantName) {
			apierrors.ValidationFailed(c, err.Error(), nil)
			return
		}
		apierrors.InternalError(c, "Failed to create organization")
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*tenant))
}

// List returns the caller's organizations with their role in each.
func (h *OrganizationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.membershipService.ListOrganizations(userID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	organizations := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, membership := range memberships {
		organizations[i] = dto.ToOrganizationWithRoleDTO(membership)
	}

	c.JSON(http.StatusOK, gin.H{"organizations": organizations})
}

// Get returns the organization with its member list.
func (h *OrganizationHandler) Get(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	tenant, members, err := h.tenantService.Get(membership.TenantID)
	if err != nil {
		if errors.Is(err, services.ErrTenantNotFound) {
			apierrors.NotFound(c, "Organization not found")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*tenant, members, membership.Role))
}

// Update renames the organization. The slug is fixed at creation.
func (h *OrganizationHandler) Update(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	type UpdateRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenantService.Rename(membership.TenantID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTenantName):
			apierrors.ValidationFailed(c, err.Error(), nil)
		case errors.Is(err, services.ErrTenantNotFound):
			apierrors.NotFound(c, "Organization not found")
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*tenant))
}

// Delete deletes the organization and everything scoped under it.
// Owner only.
func (h *OrganizationHandler) Delete(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	if err := h.tenantService.Delete(membership.TenantID); err != nil {
		if errors.Is(err, services.ErrTenantNotFound) {
			apierrors.NotFound(c, "Organization not found")
			return
		}
		apierrors.InternalError(c, "Failed to delete organization")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Organization deleted successfully",
	})
}

// RemoveMember removes a member from the organization. Owner/admin
// only; the owner is never removable.
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	targetUserID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.membershipService.RemoveMember(membership.UserID, membership.TenantID, targetUserID); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// UpdateMemberRole changes a member's role between admin and member.
// The owner role is only reachable through ownership transfer.
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	targetUserID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type UpdateRoleRequest struct {
		Role models.MembershipRole `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.membershipService.UpdateRole(membership.UserID, membership.TenantID, targetUserID, req.Role); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member role updated successfully",
	})
}

// TransferOwnership makes another member the owner and demotes the
// caller to admin. Owner only.
func (h *OrganizationHandler) TransferOwnership(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	type TransferRequest struct {
		NewOwnerID uint64 `json:"new_owner_id" binding:"required"`
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.membershipService.TransferOwnership(membership.UserID, membership.TenantID, req.NewOwnerID); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ownership transferred successfully",
	})
}

// Leave removes the caller's own membership. Sessions still pointing
// at the organization are repointed to another of the caller's
// organizations, or to none.
func (h *OrganizationHandler) Leave(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	substitute, err := h.membershipService.Leave(membership.UserID, membership.TenantID)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                "Left organization successfully",
		"active_organization_id": substitute,
	})
}

func respondMembershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAMember):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidMembershipRole):
		apierrors.ValidationFailed(c, err.Error(), nil)
	case errors.Is(err, services.ErrInsufficientRole),
		errors.Is(err, services.ErrCannotRemoveOwner),
		errors.Is(err, services.ErrCannotChangeOwnerRole),
		errors.Is(err, services.ErrOnlyOwnerCanTransfer),
		errors.Is(err, services.ErrOwnerCannotLeave):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
