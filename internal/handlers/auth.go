package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/dto"
	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/middleware"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService    *services.AuthService
	sessionService *services.SessionService
	memberships    *services.MembershipService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessionService *services.SessionService, memberships *services.MembershipService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
		memberships:    memberships,
	}
}

func saveSessionCookie(c *gin.Context, token string) error {
	session := sessions.Default(c)
	session.Set(constants.SessionTokenKey, token)
	return session.Save()
}

// Signup registers a new user with their default organization.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, session, err := h.authService.Signup(services.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := saveSessionCookie(c, session.SessionToken); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, session, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := saveSessionCookie(c, session.SessionToken); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout deletes the server-side session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if ok && authCtx.Session != nil {
		if err := h.sessionService.Delete(authCtx.Session.SessionToken); err != nil {
			apierrors.InternalError(c, "Failed to logout")
			return
		}
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user with their active
// organization. Identical for session and API-key callers.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok || authCtx.User == nil {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	response := gin.H{"user": dto.ToUserDTO(*authCtx.User)}
	if authCtx.Tenant != nil {
		response["organization"] = dto.ToOrganizationDTO(*authCtx.Tenant)
	}

	c.JSON(http.StatusOK, response)
}

// SwitchOrganization repoints the session's active tenant. Session
// authentication only.
func (h *AuthHandler) SwitchOrganization(c *gin.Context) {
	authCtx, ok := middleware.GetAuth(c)
	if !ok || authCtx.Session == nil {
		apierrors.Unauthorized(c, "this operation requires session authentication")
		return
	}

	type SwitchRequest struct {
		OrganizationID uint64 `json:"organization_id" binding:"required"`
	}

	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.memberships.IsMember(authCtx.User.ID, req.OrganizationID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}
	if !member {
		// 404, not 403: organization existence is not disclosed.
		apierrors.NotFound(c, "Organization not found")
		return
	}

	if err := h.sessionService.ReassignTenant(authCtx.Session.SessionToken, &req.OrganizationID); err != nil {
		if errors.Is(err, services.ErrInvalidSession) {
			apierrors.Unauthorized(c, "")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_organization_id": req.OrganizationID})
}

// RequestPasswordReset always reports success, whether or not the
// email exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	type ResetRequest struct {
		Email string `json:"email" binding:"required"`
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.RequestPasswordReset(req.Email); err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If that email exists, a reset link has been sent",
	})
}

// ConfirmPasswordReset consumes a reset token and signs the user out
// everywhere.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	type ConfirmRequest struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ConfirmPasswordReset(req.Token, req.Password); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset",
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.ValidationFailed(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength), nil)
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidUsername):
		apierrors.ValidationFailed(c, err.Error(), nil)
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrResetTokenInvalid):
		apierrors.Expired(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
