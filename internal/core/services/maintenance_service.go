package services

import (
	"context"
	"errors"
	"log"
	"time"

	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// MaintenanceService runs scheduled housekeeping over the user store
type MaintenanceService struct {
	users repositories.UserRepository
	cron  *cron.Cron
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(users repositories.UserRepository) *MaintenanceService {
	return &MaintenanceService{users: users, cron: cron.New()}
}

// Start registers the daily sweep and starts the scheduler
func (s *MaintenanceService) Start() error {
	_, err := s.cron.AddFunc("30 8 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.SweepExpiredResets(ctx); err != nil {
			log.Printf("reset sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Println("maintenance scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *MaintenanceService) Stop() {
	<-s.cron.Stop().Done()
}

// SweepExpiredResets clears reset codes whose expiry has passed. Users
// left in reset status keep that status; they can still request a fresh
// code.
func (s *MaintenanceService) SweepExpiredResets(ctx context.Context) error {
	pending, err := s.users.ListPendingResets(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	cleared := 0
	for _, user := range pending {
		expiry, err := time.Parse(time.RFC3339Nano, user.ResetExpiry)
		if err != nil {
			// Unparseable expiry is treated as expired
			expiry = time.Time{}
		}
		if now.Before(expiry) {
			continue
		}
		_, err = s.users.Update(ctx, user.UserID, map[string]interface{}{
			"resetCode":   "",
			"resetExpiry": "",
		})
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				continue
			}
			return err
		}
		cleared++
	}

	if cleared > 0 {
		log.Printf("reset sweep cleared %d expired code(s)", cleared)
	}
	return nil
}
