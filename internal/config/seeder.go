package config

import (
	"context"
	"errors"
	"log"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/core/domain"

	"github.com/google/uuid"
)

// EnsureAdminGroup creates the admin group if it does not exist. Every
// deployment needs it present before the first admin user can be added.
func EnsureAdminGroup(ctx context.Context, groups repositories.GroupRepository) error {
	_, err := groups.GetByName(ctx, domain.AdminGroup)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrGroupNotFound) {
		return err
	}

	group := &models.Group{
		GroupID:   uuid.New().String(),
		GroupName: domain.AdminGroup,
		Members:   models.StringList{},
	}
	if err := groups.Create(ctx, group); err != nil {
		// Another instance may have created it concurrently
		if errors.Is(err, domain.ErrDuplicate) {
			return nil
		}
		return err
	}

	log.Printf("admin group created: %s", group.GroupID)
	return nil
}
