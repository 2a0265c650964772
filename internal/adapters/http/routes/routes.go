package routes

import (
	"authgate/internal/adapters/http/handlers"
	"authgate/internal/adapters/http/middleware"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/config"
	"authgate/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// Deps carries the wired dependencies for route setup
type Deps struct {
	Users      repositories.UserRepository
	Groups     repositories.GroupRepository
	Apps       repositories.AppRepository
	Mailer     services.MailAgent
	Cfg        *config.Config
	StorePing  func() error
	StoreLabel string
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Deps) {
	cfg := deps.Cfg

	// Initialize services
	userService := services.NewUserService(deps.Users, cfg)
	groupService := services.NewGroupService(deps.Groups, userService)
	appService := services.NewAppService(deps.Apps)
	sessionService := services.NewSessionService(userService, groupService, appService, cfg)
	authzService := services.NewAuthzService(userService, groupService, appService)
	notifier := services.NewNotificationService(deps.Mailer, cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, deps.StoreLabel, deps.StorePing)
	authHandler := handlers.NewAuthHandler(sessionService, userService, cfg)
	userHandler := handlers.NewUserHandler(userService, notifier, cfg)
	groupHandler := handlers.NewGroupHandler(groupService)
	appHandler := handlers.NewAppHandler(appService)

	// Authorization building blocks
	requireAuth := middleware.RequireAuth(cfg)
	admin := middleware.Protected(authzService, authzService.AdminRequired(), authzService.WriteEnabledRequired())
	readOnly := middleware.Protected(authzService, authzService.AdminRequired())

	// Health
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api/v1")

	// Auth (public, rate limited)
	auth := api.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/token", middleware.AuthRateLimiter(), authHandler.AppToken)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", requireAuth, authHandler.Logout)

	// Password reset (public, strictly rate limited)
	password := api.Group("/password")
	password.Post("/reset", middleware.StrictRateLimiter(), userHandler.RequestReset)
	password.Post("/redeem", middleware.StrictRateLimiter(), authHandler.RedeemReset)

	// Users (admin only; writes additionally require write-enabled apps)
	users := api.Group("/users", requireAuth)
	users.Post("/", admin, userHandler.Create)
	users.Get("/", readOnly, userHandler.Find)
	users.Get("/:id", readOnly, userHandler.Details)
	users.Put("/:id/named/:name", admin, userHandler.SetNamedAttribute)
	users.Put("/:id/attributes/:key", admin, userHandler.SetAttribute)
	users.Delete("/:id", admin, userHandler.Delete)
	users.Get("/:userId/groups", readOnly, groupHandler.ForUser)

	// Groups
	groups := api.Group("/groups", requireAuth)
	groups.Post("/", admin, groupHandler.Create)
	groups.Get("/", readOnly, groupHandler.Find)
	groups.Get("/:id", readOnly, groupHandler.Details)
	groups.Delete("/:id", admin, groupHandler.Delete)
	groups.Post("/:id/members", admin, groupHandler.AddMember)
	groups.Delete("/:id/members", admin, groupHandler.RemoveMember)
	groups.Get("/:id/members", readOnly, groupHandler.MembersDetail)
	groups.Get("/:id/members/:attribute", readOnly, groupHandler.MemberAttribute)

	// Apps
	apps := api.Group("/apps", requireAuth)
	apps.Post("/", admin, appHandler.Create)
	apps.Get("/", readOnly, appHandler.Find)
	apps.Get("/:id", readOnly, appHandler.Details)
	apps.Put("/:id/attributes/:key", admin, appHandler.SetAttribute)
	apps.Delete("/:id", admin, appHandler.Delete)
}
