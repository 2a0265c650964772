// Command seedadmin bootstraps the first administrator: it creates the
// admin group if missing, creates the given user, adds it to the admin
// group, and prints the one-time reset code for setting the password.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/config"
	"authgate/internal/core/domain"
	"authgate/internal/core/services"
)

func main() {
	email := flag.String("email", "", "email address of the first admin user")
	flag.Parse()

	if *email == "" {
		log.Fatal("usage: seedadmin -email <address>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	ctx := context.Background()
	userRepo := repositories.NewUserRepository(db)
	groupRepo := repositories.NewGroupRepository(db)

	if err := config.EnsureAdminGroup(ctx, groupRepo); err != nil {
		log.Fatalf("Failed to ensure admin group: %v", err)
	}

	userService := services.NewUserService(userRepo, cfg)
	groupService := services.NewGroupService(groupRepo, userService)

	user, resetCode, err := userService.Create(ctx, cfg.ServiceDomain, *email)
	if err != nil {
		if errors.Is(err, domain.ErrUserAction) {
			log.Fatalf("User already exists: %s", *email)
		}
		log.Fatalf("Failed to create user: %v", err)
	}

	adminGroup, err := groupService.GetByName(ctx, domain.AdminGroup)
	if err != nil {
		log.Fatalf("Failed to load admin group: %v", err)
	}
	if _, err := groupService.AddMember(ctx, adminGroup.GroupID, user.UserID); err != nil {
		log.Fatalf("Failed to add user to admin group: %v", err)
	}

	fmt.Printf("Admin user created: %s (%s)\n", user.Email, user.UserID)
	fmt.Printf("Set the password within %d day(s) using this reset code:\n", cfg.Reset.ValidityDays)
	fmt.Printf("%s\n", resetCode)
}
