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

// InvitationHandler coordinates invitation HTTP handlers, both the
// management surface under an organization and the public token
// surface.
type InvitationHandler struct {
	invitationService *services.InvitationService
	sessionService    *services.SessionService
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(invitationService *services.InvitationService, sessionService *services.SessionService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		sessionService:    sessionService,
	}
}

// Create invites an email into the organization. Owner/admin only.
func (h *InvitationHandler) Create(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	type CreateRequest struct {
		Email string                `json:"email" binding:"required"`
		Role  models.MembershipRole `json:"role" binding:"required"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invitation, err := h.invitationService.Create(services.CreateInvitationInput{
		ActorID:  membership.UserID,
		TenantID: membership.TenantID,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*invitation))
}

// List returns the organization's invitations. Owner/admin only.
func (h *InvitationHandler) List(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	invitations, err := h.invitationService.List(membership.UserID, membership.TenantID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	invitationDTOs := make([]dto.InvitationDTO, len(invitations))
	for i, invitation := range invitations {
		invitationDTOs[i] = dto.ToInvitationDTO(invitation)
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitationDTOs})
}

// Revoke withdraws a pending invitation. Owner/admin only; an
// invitation that already left pending cannot be revoked.
func (h *InvitationHandler) Revoke(c *gin.Context) {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		apierrors.Forbidden(c, "")
		return
	}

	invitationID, err := strconv.ParseUint(c.Param("invitationId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return
	}

	if err := h.invitationService.Revoke(membership.UserID, invitationID); err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation revoked successfully",
	})
}

// GetByToken returns the public view of an invitation. No
// authentication: the token itself is the capability.
func (h *InvitationHandler) GetByToken(c *gin.Context) {
	view, err := h.invitationService.GetByToken(c.Param("token"))
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Accept joins the caller to the inviting organization and makes it
// their active organization.
func (h *InvitationHandler) Accept(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok || authCtx.User == nil {
		apierrors.Unauthorized(c, "")
		return
	}

	tenantID, err := h.invitationService.Accept(authCtx.User.ID, c.Param("token"))
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	if authCtx.Session != nil {
		if err := h.sessionService.ReassignTenant(authCtx.Session.SessionToken, &tenantID); err != nil &&
			!errors.Is(err, services.ErrInvalidSession) {
			apierrors.InternalError(c, "")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                "Invitation accepted",
		"active_organization_id": tenantID,
	})
}

// Decline marks the invitation declined without creating a membership.
func (h *InvitationHandler) Decline(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok || authCtx.User == nil {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.invitationService.Decline(authCtx.User.ID, c.Param("token")); err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation declined",
	})
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvitationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvitationExpired):
		apierrors.Expired(c, err.Error())
	case errors.Is(err, services.ErrDuplicateInvitation),
		errors.Is(err, services.ErrInviteeAlreadyMember),
		errors.Is(err, services.ErrInvitationAlreadyHandled),
		errors.Is(err, services.ErrInvitationNotRevocable):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidMembershipRole):
		apierrors.ValidationFailed(c, err.Error(), nil)
	case errors.Is(err, services.ErrInsufficientRole),
		errors.Is(err, services.ErrNotAMember):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
