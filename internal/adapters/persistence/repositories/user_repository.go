package repositories

import (
	"context"
	"errors"
	"fmt"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/validate"

	"gorm.io/gorm"
)

// userRepository implements UserRepository over gorm
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user document
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := validate.Email(user.Email); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: an account exists with this email address", domain.ErrDuplicate)
	}
	return err
}

// GetByID gets a user by business id
func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if err := validate.UserString(userID); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "user_id = ?", userID)
}

// GetByEmail gets a user by email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "email = ?", email)
}

// GetByResetCode gets a user by an outstanding reset code
func (r *userRepository) GetByResetCode(ctx context.Context, resetCode string) (*models.User, error) {
	if err := validate.UserString(resetCode); err != nil {
		return nil, err
	}
	if resetCode == "" {
		return nil, fmt.Errorf("%w: reset code required", domain.ErrInput)
	}
	return r.getOne(ctx, "reset_code = ?", resetCode)
}

// getOne enforces unique-lookup semantics: zero rows is NotFound, more
// than one row on a unique field is TooManyRecords.
func (r *userRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where(query, arg).Limit(2).Find(&users).Error
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, domain.ErrUserNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, domain.ErrTooManyRecords
	}
}

// Update performs a partial-field merge keyed by user id and returns the
// post-update document
func (r *userRepository) Update(ctx context.Context, userID string, fields map[string]interface{}) (*models.User, error) {
	if err := validate.UserString(userID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates given", domain.ErrInput)
	}

	cols := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		col, ok := userFieldColumns[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown user field %q", domain.ErrInput, name)
		}
		// Credential hashes are server-generated, not caller input, and
		// legitimately contain denylisted characters.
		if name != "passwordHash" {
			if s, ok := value.(string); ok {
				if err := validate.UserString(s); err != nil {
					return nil, err
				}
			}
		}
		if attrs, ok := value.(models.StringMap); ok {
			for k, v := range attrs {
				if err := validate.UserString(k); err != nil {
					return nil, err
				}
				if err := validate.UserString(v); err != nil {
					return nil, err
				}
			}
		}
		cols[col] = value
	}

	var out models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Where("user_id = ?", userID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		if err := tx.Model(&models.User{}).Where("user_id = ?", userID).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete deletes a user document by business id
func (r *userRepository) Delete(ctx context.Context, userID string) error {
	if err := validate.UserString(userID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindLike returns (id, email) pairs for all users whose email contains
// the given substring, ordered by email
func (r *userRepository) FindLike(ctx context.Context, emailSubstring string) ([]NameRef, error) {
	if err := validate.UserString(emailSubstring); err != nil {
		return nil, err
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("email LIKE ?", "%"+emailSubstring+"%").
		Order("email").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	refs := make([]NameRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, NameRef{ID: u.UserID, Name: u.Email})
	}
	return refs, nil
}

// ListPendingResets returns all users with an outstanding reset code.
// Used by the maintenance sweeper.
func (r *userRepository) ListPendingResets(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Where("reset_code <> ''").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
