package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

const contextKeyMembership = "organization_membership"

// RequireOrganizationAccess checks that the caller is a member of the
// organization in the URL. Non-members get 404, not 403: organization
// existence is not disclosed.
func RequireOrganizationAccess(memberships *services.MembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		role, err := memberships.GetRole(userID, orgID)
		if err != nil {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if role == nil {
			apierrors.NotFound(c, "Organization not found")
			c.Abort()
			return
		}

		c.Set(contextKeyMembership, models.Membership{
			TenantID: orgID,
			UserID:   userID,
			Role:     *role,
		})
		c.Next()
	}
}

// GetMembership retrieves the membership stored by RequireOrganizationAccess.
func GetMembership(c *gin.Context) (models.Membership, bool) {
	value, exists := c.Get(contextKeyMembership)
	if !exists {
		return models.Membership{}, false
	}
	membership, ok := value.(models.Membership)
	return membership, ok
}

// RequireOrganizationManager checks that the caller is owner or admin
// of the organization. Must run after RequireOrganizationAccess.
func RequireOrganizationManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership, ok := GetMembership(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}
		if membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
			apierrors.Forbidden(c, "Only organization owners and admins can perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOrganizationOwner checks that the caller owns the organization.
// Must run after RequireOrganizationAccess.
func RequireOrganizationOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		membership, ok := GetMembership(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}
		if membership.Role != models.RoleOwner {
			apierrors.Forbidden(c, "Only organization owners can perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}
