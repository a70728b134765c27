package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	apierrors "github.com/teamtodo/teamtodo-api/internal/errors"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

// AuthMethod names the credential variant a request resolved to.
type AuthMethod string

const (
	AuthMethodNone    AuthMethod = "none"
	AuthMethodSession AuthMethod = "session"
	AuthMethodAPIKey  AuthMethod = "api_key"
	AuthMethodAdmin   AuthMethod = "admin"
)

// AuthContext is the normalized result of resolving a request's
// credential. Exactly one method applies per request; downstream gates
// match on the variant they require.
type AuthContext struct {
	Method  AuthMethod
	User    *models.User
	Tenant  *models.Tenant
	Session *models.Session
	APIKey  *models.APIKey
	IsAdmin bool
}

// Authenticate resolves the inbound credential into an AuthContext and
// stores it on the request. It never rejects by itself: a request with
// no usable credential proceeds with an unauthenticated context, and
// the category gates below decide what to do with it. Precedence:
// admin secret, then bearer API key, then session cookie.
func Authenticate(sessionSvc *services.SessionService, apiKeySvc *services.APIKeyService, adminSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx := &AuthContext{Method: AuthMethodNone}

		if bearer := bearerToken(c); bearer != "" {
			if adminSecret != "" &&
				subtle.ConstantTimeCompare([]byte(bearer), []byte(adminSecret)) == 1 {
				authCtx.Method = AuthMethodAdmin
				authCtx.IsAdmin = true
				c.Set(constants.ContextKeyAuth, authCtx)
				c.Next()
				return
			}

			key, err := apiKeySvc.Validate(c.Request.Context(), bearer)
			if err == nil {
				authCtx.Method = AuthMethodAPIKey
				authCtx.APIKey = key
				authCtx.Tenant = &key.Tenant
				authCtx.User = key.User
				c.Set(constants.ContextKeyAuth, authCtx)
				c.Next()
				return
			}
			if !errors.Is(err, services.ErrInvalidAPIKey) {
				apierrors.InternalError(c, "")
				c.Abort()
				return
			}
		}

		if token := cookieToken(c); token != "" {
			session, err := sessionSvc.Validate(token)
			if err == nil {
				authCtx.Method = AuthMethodSession
				authCtx.Session = session
				authCtx.User = &session.User
				authCtx.Tenant = session.Tenant
			} else if !errors.Is(err, services.ErrInvalidSession) {
				apierrors.InternalError(c, "")
				c.Abort()
				return
			}
		}

		c.Set(constants.ContextKeyAuth, authCtx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func cookieToken(c *gin.Context) string {
	session := sessions.Default(c)
	token, _ := session.Get(constants.SessionTokenKey).(string)
	return token
}

// GetAuth retrieves the resolved authorization context.
func GetAuth(c *gin.Context) (*AuthContext, bool) {
	value, exists := c.Get(constants.ContextKeyAuth)
	if !exists {
		return nil, false
	}
	authCtx, ok := value.(*AuthContext)
	return authCtx, ok
}

// GetUserID retrieves the current user ID from the authorization context.
func GetUserID(c *gin.Context) (uint64, bool) {
	authCtx, ok := GetAuth(c)
	if !ok || authCtx.User == nil {
		return 0, false
	}
	return authCtx.User.ID, true
}

// RequireUser gates user-scoped operations: a user identity must be
// present, from either a session or a user-associated API key. A
// tenant-only key is rejected explicitly.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := GetAuth(c)
		if !ok || authCtx.User == nil {
			if ok && authCtx.Method == AuthMethodAPIKey {
				apierrors.Unauthorized(c, "API key is not associated with a user")
			} else {
				apierrors.Unauthorized(c, "")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSession gates operations that only make sense for a browser
// session (organization switch, sign-out). API-key contexts get a
// descriptive rejection rather than a generic one.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := GetAuth(c)
		if !ok || authCtx.Session == nil {
			if ok && (authCtx.Method == AuthMethodAPIKey || authCtx.Method == AuthMethodAdmin) {
				apierrors.Unauthorized(c, "this operation requires session authentication")
			} else {
				apierrors.Unauthorized(c, "")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin gates operations on the configured admin secret.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := GetAuth(c)
		if !ok || !authCtx.IsAdmin {
			apierrors.Unauthorized(c, "admin authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireTenant gates tenant-scoped operations: the context must carry
// an active tenant, either the session's active tenant or the API
// key's tenant.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := GetAuth(c)
		if !ok || authCtx.Tenant == nil {
			apierrors.Forbidden(c, "no active organization")
			c.Abort()
			return
		}
		if !authCtx.Tenant.IsActive {
			apierrors.Forbidden(c, "organization is inactive")
			c.Abort()
			return
		}
		c.Next()
	}
}
