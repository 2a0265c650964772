package repositories

import (
	"context"

	"authgate/internal/adapters/persistence/models"
)

// NameRef is an (id, name) pair returned by substring searches.
type NameRef struct {
	ID   string
	Name string
}

// UserRepository is the users-collection contract. Lookups are keyed by
// business identifiers, never by storage ids. Create surfaces
// domain.ErrDuplicate on a unique-key collision; unique lookups surface
// domain.ErrUserNotFound or domain.ErrTooManyRecords. Update performs a
// partial-field merge keyed by id and returns the post-update document.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetCode(ctx context.Context, resetCode string) (*models.User, error)
	Update(ctx context.Context, userID string, fields map[string]interface{}) (*models.User, error)
	Delete(ctx context.Context, userID string) error
	FindLike(ctx context.Context, emailSubstring string) ([]NameRef, error)
	ListPendingResets(ctx context.Context) ([]*models.User, error)
}

// GroupRepository is the groups-collection contract.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, groupID string) (*models.Group, error)
	GetByName(ctx context.Context, groupName string) (*models.Group, error)
	Update(ctx context.Context, groupID string, fields map[string]interface{}) (*models.Group, error)
	Delete(ctx context.Context, groupID string) error
	FindLike(ctx context.Context, nameSubstring string) ([]NameRef, error)
	FindByMember(ctx context.Context, userID string) ([]NameRef, error)
}

// AppRepository is the apps-collection contract.
type AppRepository interface {
	Create(ctx context.Context, app *models.App) error
	GetByID(ctx context.Context, appID string) (*models.App, error)
	GetByName(ctx context.Context, appName string) (*models.App, error)
	GetByKey(ctx context.Context, key string) (*models.App, error)
	Update(ctx context.Context, appID string, fields map[string]interface{}) (*models.App, error)
	Delete(ctx context.Context, appID string) error
	FindLike(ctx context.Context, nameSubstring string) ([]NameRef, error)
}

// Field-name to column allowlists for partial updates. An unknown field
// name is an input error, not a silent skip.

var userFieldColumns = map[string]string{
	"email":        "email",
	"status":       "status",
	"passwordHash": "password_hash",
	"resetCode":    "reset_code",
	"resetExpiry":  "reset_expiry",
	"refreshJti":   "refresh_jti",
	"attributes":   "attributes",
}

var groupFieldColumns = map[string]string{
	"groupName": "group_name",
	"members":   "members",
}

var appFieldColumns = map[string]string{
	"appName":    "app_name",
	"secretHash": "secret_hash",
	"attributes": "attributes",
}
