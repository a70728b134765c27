package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/hasher"
	"github.com/teamtodo/teamtodo-api/internal/mailer"
	"github.com/teamtodo/teamtodo-api/internal/middleware"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

const handlerTestAdminSecret = "handler-admin-secret"

// handlerTestEnv wires the full route table over an in-memory database,
// the same way the server entrypoint does.
type handlerTestEnv struct {
	db     *gorm.DB
	router *gin.Engine

	authService    *services.AuthService
	sessionService *services.SessionService
	apiKeyService  *services.APIKeyService
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.RegisterTenantGuard(db))
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.Membership{},
		&models.Session{},
		&models.APIKey{},
		&models.PasswordResetToken{},
		&models.Invitation{},
		&models.Todo{},
		&models.Tag{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	hash := hasher.New(bcrypt.MinCost)
	sender := mailer.NewLogSender()
	sessionService := services.NewSessionService(sessionRepo, 30)
	apiKeyService := services.NewAPIKeyService(db, apiKeyRepo, hash)
	membershipService := services.NewMembershipService(membershipRepo)
	tenantService := services.NewTenantService(tenantRepo, membershipRepo)
	authService := services.NewAuthService(userRepo, tenantRepo, membershipRepo, resetRepo, sessionService, hash, sender, 2)
	invitationService := services.NewInvitationService(invitationRepo, membershipRepo, userRepo, membershipService, sender)
	todoService := services.NewTodoService(db)
	tagService := services.NewTagService(db)

	authHandler := NewAuthHandler(authService, sessionService, membershipService)
	orgHandler := NewOrganizationHandler(tenantService, membershipService, sessionService)
	invitationHandler := NewInvitationHandler(invitationService, sessionService)
	apiKeyHandler := NewAPIKeyHandler(apiKeyService, membershipService)
	todoHandler := NewTodoHandler(todoService)
	tagHandler := NewTagHandler(tagService)
	adminHandler := NewAdminHandler(tenantService, userRepo)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.Use(middleware.Authenticate(sessionService, apiKeyService, handlerTestAdminSecret))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireUser(), authHandler.GetCurrentUser)
			auth.POST("/switch-organization", middleware.RequireSession(), authHandler.SwitchOrganization)
			auth.POST("/password-reset/request", authHandler.RequestPasswordReset)
			auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireUser())
		{
			orgs.POST("", orgHandler.Create)
			orgs.GET("", orgHandler.List)

			access := middleware.RequireOrganizationAccess(membershipService)
			manager := middleware.RequireOrganizationManager()
			owner := middleware.RequireOrganizationOwner()

			orgs.GET("/:id", access, orgHandler.Get)
			orgs.PATCH("/:id", access, manager, orgHandler.Update)
			orgs.DELETE("/:id", access, owner, orgHandler.Delete)

			orgs.POST("/:id/invitations", access, manager, invitationHandler.Create)
			orgs.GET("/:id/invitations", access, manager, invitationHandler.List)
			orgs.DELETE("/:id/invitations/:invitationId", access, manager, invitationHandler.Revoke)

			orgs.DELETE("/:id/members/:userId", access, manager, orgHandler.RemoveMember)
			orgs.PATCH("/:id/members/:userId", access, manager, orgHandler.UpdateMemberRole)
			orgs.POST("/:id/transfer-ownership", access, owner, orgHandler.TransferOwnership)
			orgs.POST("/:id/leave", access, orgHandler.Leave)
		}

		invitations := api.Group("/invitations")
		{
			invitations.GET("/:token", invitationHandler.GetByToken)
			invitations.POST("/:token/accept", middleware.RequireUser(), invitationHandler.Accept)
			invitations.POST("/:token/decline", middleware.RequireUser(), invitationHandler.Decline)
		}

		apiKeys := api.Group("/api-keys")
		apiKeys.Use(middleware.RequireUser(), middleware.RequireTenant())
		{
			apiKeys.POST("", apiKeyHandler.Create)
			apiKeys.GET("", apiKeyHandler.List)
			apiKeys.POST("/:id/revoke", apiKeyHandler.Revoke)
			apiKeys.DELETE("/:id", apiKeyHandler.Delete)
		}

		todos := api.Group("/todos")
		todos.Use(middleware.RequireTenant())
		{
			todos.GET("", todoHandler.List)
			todos.POST("", todoHandler.Create)
			todos.GET("/:id", todoHandler.Get)
			todos.PATCH("/:id", todoHandler.Update)
			todos.DELETE("/:id", todoHandler.Delete)
		}

		tags := api.Group("/tags")
		tags.Use(middleware.RequireTenant())
		{
			tags.GET("", tagHandler.List)
			tags.POST("", tagHandler.Create)
			tags.PATCH("/:id", tagHandler.Update)
			tags.DELETE("/:id", tagHandler.Delete)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/organizations", adminHandler.ListOrganizations)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
		}
	}

	return &handlerTestEnv{
		db:             db,
		router:         r,
		authService:    authService,
		sessionService: sessionService,
		apiKeyService:  apiKeyService,
	}
}

// request runs an HTTP request against the test router. Body may be nil.
func (env *handlerTestEnv) request(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// signup registers a user through the API and returns the session
// cookies the response set.
func (env *handlerTestEnv) signup(t *testing.T, email, username, password string) []*http.Cookie {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	return w.Result().Cookies()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}
