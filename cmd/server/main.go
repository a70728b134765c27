package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teamtodo/teamtodo-api/internal/config"
	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/database"
	"github.com/teamtodo/teamtodo-api/internal/handlers"
	"github.com/teamtodo/teamtodo-api/internal/hasher"
	"github.com/teamtodo/teamtodo-api/internal/logger"
	"github.com/teamtodo/teamtodo-api/internal/mailer"
	"github.com/teamtodo/teamtodo-api/internal/middleware"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.L().Sync() //nolint:errcheck

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.L().Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Services
	hash := hasher.New(cfg.BcryptCost)
	sender := mailer.NewLogSender()
	sessionService := services.NewSessionService(sessionRepo, cfg.SessionLifetimeDays)
	apiKeyService := services.NewAPIKeyService(db, apiKeyRepo, hash)
	membershipService := services.NewMembershipService(membershipRepo)
	tenantService := services.NewTenantService(tenantRepo, membershipRepo)
	authService := services.NewAuthService(userRepo, tenantRepo, membershipRepo, resetRepo, sessionService, hash, sender, cfg.ResetTokenLifetimeHours)
	invitationService := services.NewInvitationService(invitationRepo, membershipRepo, userRepo, membershipService, sender)
	todoService := services.NewTodoService(db)
	tagService := services.NewTagService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, sessionService, membershipService)
	orgHandler := handlers.NewOrganizationHandler(tenantService, membershipService, sessionService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, sessionService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService, membershipService)
	todoHandler := handlers.NewTodoHandler(todoService)
	tagHandler := handlers.NewTagHandler(tagService)
	adminHandler := handlers.NewAdminHandler(tenantService, userRepo)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Session cookie: signed carrier of the opaque server-side token.
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * cfg.SessionLifetimeDays,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Credential resolution runs on every request; the category gates
	// on the routes below decide who gets in.
	r.Use(middleware.Authenticate(sessionService, apiKeyService, cfg.AdminSecret))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
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

		// Organization routes (protected)
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

		// Invitation routes: the public token view needs no credential,
		// accept and decline need a user.
		invitations := api.Group("/invitations")
		{
			invitations.GET("/:token", invitationHandler.GetByToken)
			invitations.POST("/:token/accept", middleware.RequireUser(), invitationHandler.Accept)
			invitations.POST("/:token/decline", middleware.RequireUser(), invitationHandler.Decline)
		}

		// API key routes (owner/admin of the active organization)
		apiKeys := api.Group("/api-keys")
		apiKeys.Use(middleware.RequireUser(), middleware.RequireTenant())
		{
			apiKeys.POST("", apiKeyHandler.Create)
			apiKeys.GET("", apiKeyHandler.List)
			apiKeys.POST("/:id/revoke", apiKeyHandler.Revoke)
			apiKeys.DELETE("/:id", apiKeyHandler.Delete)
		}

		// Todo routes (tenant-scoped)
		todos := api.Group("/todos")
		todos.Use(middleware.RequireTenant())
		{
			todos.GET("", todoHandler.List)
			todos.POST("", todoHandler.Create)
			todos.GET("/:id", todoHandler.Get)
			todos.PATCH("/:id", todoHandler.Update)
			todos.DELETE("/:id", todoHandler.Delete)
		}

		// Tag routes (tenant-scoped)
		tags := api.Group("/tags")
		tags.Use(middleware.RequireTenant())
		{
			tags.GET("", tagHandler.List)
			tags.POST("", tagHandler.Create)
			tags.PATCH("/:id", tagHandler.Update)
			tags.DELETE("/:id", tagHandler.Delete)
		}

		// Admin routes (admin secret)
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/organizations", adminHandler.ListOrganizations)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
		}
	}

	// Start server
	logger.L().Info("Starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.L().Fatal("Failed to start server", zap.Error(err))
	}
}
