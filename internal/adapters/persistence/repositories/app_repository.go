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

// appRepository implements AppRepository over gorm
type appRepository struct {
	db *gorm.DB
}

// NewAppRepository creates a new app repository
func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{db: db}
}

// Create creates a new app document
func (r *appRepository) Create(ctx context.Context, app *models.App) error {
	if err := validate.UserString(app.AppName); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(app).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: an app exists with this name", domain.ErrDuplicate)
	}
	return err
}

// GetByID gets an app by business id
func (r *appRepository) GetByID(ctx context.Context, appID string) (*models.App, error) {
	if err := validate.UserString(appID); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "app_id = ?", appID)
}

// GetByName gets an app by its unique name
func (r *appRepository) GetByName(ctx context.Context, appName string) (*models.App, error) {
	if err := validate.UserString(appName); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "app_name = ?", appName)
}

// GetByKey gets an app by its public key identifier
func (r *appRepository) GetByKey(ctx context.Context, key string) (*models.App, error) {
	if err := validate.UserString(key); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: app key required", domain.ErrInput)
	}
	return r.getOne(ctx, "`key` = ?", key)
}

func (r *appRepository) getOne(ctx context.Context, query string, arg string) (*models.App, error) {
	var apps []models.App
	err := r.db.WithContext(ctx).Where(query, arg).Limit(2).Find(&apps).Error
	if err != nil {
		return nil, err
	}
	switch len(apps) {
	case 0:
		return nil, domain.ErrAppNotFound
	case 1:
		return &apps[0], nil
	default:
		return nil, domain.ErrTooManyRecords
	}
}

// Update performs a partial-field merge keyed by app id and returns the
// post-update document
func (r *appRepository) Update(ctx context.Context, appID string, fields map[string]interface{}) (*models.App, error) {
	if err := validate.UserString(appID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates given", domain.ErrInput)
	}

	cols := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		col, ok := appFieldColumns[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown app field %q", domain.ErrInput, name)
		}
		// Secret hashes are server-generated and may contain denylisted
		// characters.
		if name != "secretHash" {
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

	var out models.App
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.App
		if err := tx.Where("app_id = ?", appID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAppNotFound
			}
			return err
		}
		if err := tx.Model(&models.App{}).Where("app_id = ?", appID).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("app_id = ?", appID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete deletes an app document by business id
func (r *appRepository) Delete(ctx context.Context, appID string) error {
	if err := validate.UserString(appID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("app_id = ?", appID).Delete(&models.App{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAppNotFound
	}
	return nil
}

// FindLike returns (id, name) pairs for all apps whose name contains the
// given substring, ordered by name
func (r *appRepository) FindLike(ctx context.Context, nameSubstring string) ([]NameRef, error) {
	if err := validate.UserString(nameSubstring); err != nil {
		return nil, err
	}
	var apps []models.App
	err := r.db.WithContext(ctx).
		Where("app_name LIKE ?", "%"+nameSubstring+"%").
		Order("app_name").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	refs := make([]NameRef, 0, len(apps))
	for _, a := range apps {
		refs = append(refs, NameRef{ID: a.AppID, Name: a.AppName})
	}
	return refs, nil
}
