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

// groupRepository implements GroupRepository over gorm
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create creates a new group document
func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := validate.GroupString(group.GroupName); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(group).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: a group exists with this name", domain.ErrDuplicate)
	}
	return err
}

// GetByID gets a group by business id
func (r *groupRepository) GetByID(ctx context.Context, groupID string) (*models.Group, error) {
	if err := validate.GroupString(groupID); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "group_id = ?", groupID)
}

// GetByName gets a group by its unique name
func (r *groupRepository) GetByName(ctx context.Context, groupName string) (*models.Group, error) {
	if err := validate.GroupString(groupName); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "group_name = ?", groupName)
}

func (r *groupRepository) getOne(ctx context.Context, query string, arg string) (*models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Where(query, arg).Limit(2).Find(&groups).Error
	if err != nil {
		return nil, err
	}
	switch len(groups) {
	case 0:
		return nil, domain.ErrGroupNotFound
	case 1:
		return &groups[0], nil
	default:
		return nil, domain.ErrTooManyRecords
	}
}

// Update performs a partial-field merge keyed by group id and returns the
// post-update document
func (r *groupRepository) Update(ctx context.Context, groupID string, fields map[string]interface{}) (*models.Group, error) {
	if err := validate.GroupString(groupID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates given", domain.ErrInput)
	}

	cols := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		col, ok := groupFieldColumns[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown group field %q", domain.ErrInput, name)
		}
		if s, ok := value.(string); ok {
			if err := validate.GroupString(s); err != nil {
				return nil, err
			}
		}
		if members, ok := value.(models.StringList); ok {
			for _, m := range members {
				if err := validate.UserString(m); err != nil {
					return nil, err
				}
			}
		}
		cols[col] = value
	}

	var out models.Group
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Group
		if err := tx.Where("group_id = ?", groupID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrGroupNotFound
			}
			return err
		}
		if err := tx.Model(&models.Group{}).Where("group_id = ?", groupID).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("group_id = ?", groupID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete deletes a group document by business id. Protection of the admin
// group is enforced at the service layer, not here.
func (r *groupRepository) Delete(ctx context.Context, groupID string) error {
	if err := validate.GroupString(groupID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.Group{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// FindLike returns (id, name) pairs for all groups whose name contains
// the given substring, ordered by name
func (r *groupRepository) FindLike(ctx context.Context, nameSubstring string) ([]NameRef, error) {
	if err := validate.GroupString(nameSubstring); err != nil {
		return nil, err
	}
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Where("group_name LIKE ?", "%"+nameSubstring+"%").
		Order("group_name").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	refs := make([]NameRef, 0, len(groups))
	for _, g := range groups {
		refs = append(refs, NameRef{ID: g.GroupID, Name: g.GroupName})
	}
	return refs, nil
}

// FindByMember returns (id, name) pairs for all groups whose member list
// contains the given user id
func (r *groupRepository) FindByMember(ctx context.Context, userID string) ([]NameRef, error) {
	if err := validate.UserString(userID); err != nil {
		return nil, err
	}
	// Member lists are stored as JSON arrays; a LIKE on the quoted id is
	// sufficient because ids are UUIDs and cannot be substrings of one
	// another.
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Where("members LIKE ?", "%\""+userID+"\"%").
		Order("group_name").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	refs := make([]NameRef, 0, len(groups))
	for _, g := range groups {
		refs = append(refs, NameRef{ID: g.GroupID, Name: g.GroupName})
	}
	return refs, nil
}
