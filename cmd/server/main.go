package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"authgate/internal/adapters/http/middleware"
	"authgate/internal/adapters/http/routes"
	"authgate/internal/adapters/mail"
	"authgate/internal/adapters/persistence/memory"
	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/config"
	"authgate/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Wire the persistence backend
	deps, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer cleanup()

	// The admin group must exist before any admin user can be added
	if err := config.EnsureAdminGroup(context.Background(), deps.Groups); err != nil {
		log.Fatalf("Failed to ensure admin group: %v", err)
	}

	// Wire the mail agent
	deps.Mailer, err = buildMailer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize mail agent: %v", err)
	}
	deps.Cfg = cfg

	// Daily sweep of expired reset codes
	maintenance := services.NewMaintenanceService(deps.Users)
	if err := maintenance.Start(); err != nil {
		log.Fatalf("Failed to start maintenance scheduler: %v", err)
	}
	defer maintenance.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "authgate API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, deps)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildStore wires repositories for the configured driver
func buildStore(cfg *config.Config) (routes.Deps, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		deps := routes.Deps{
			Users:      store.Users(),
			Groups:     store.Groups(),
			Apps:       store.Apps(),
			StoreLabel: "memory",
		}
		return deps, func() {}, nil

	default:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return routes.Deps{}, nil, err
		}
		if err := models.AutoMigrate(db); err != nil {
			config.CloseDatabase(db)
			return routes.Deps{}, nil, err
		}
		log.Println("Database migration completed")

		deps := routes.Deps{
			Users:      repositories.NewUserRepository(db),
			Groups:     repositories.NewGroupRepository(db),
			Apps:       repositories.NewAppRepository(db),
			StorePing:  pingFunc(db),
			StoreLabel: "database",
		}
		cleanup := func() {
			if err := config.CloseDatabase(db); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		}
		return deps, cleanup, nil
	}
}

// pingFunc returns a health probe for the database connection
func pingFunc(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}
}

// buildMailer wires the configured mail agent
func buildMailer(cfg *config.Config) (services.MailAgent, error) {
	switch cfg.Mail.Agent {
	case "smtp":
		return mail.NewSMTPAgent(cfg.Mail), nil
	default:
		return mail.NewFileAgent(cfg.Mail.OutDir)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}
