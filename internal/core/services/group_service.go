package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/validate"

	"github.com/google/uuid"
)

// GroupService owns group lifecycle and membership mutation
type GroupService struct {
	groups repositories.GroupRepository
	users  *UserService
}

// NewGroupService creates a new group service
func NewGroupService(groups repositories.GroupRepository, users *UserService) *GroupService {
	return &GroupService{groups: groups, users: users}
}

func groupSnapshot(doc *models.Group) *domain.Group {
	return &domain.Group{
		GroupID:   doc.GroupID,
		GroupName: doc.GroupName,
		Members:   append([]string{}, doc.Members...),
	}
}

// Create creates a group with an initial member list. Members must be
// given by id.
func (s *GroupService) Create(ctx context.Context, name string, memberIDs []string) (*domain.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name not given", domain.ErrInput)
	}
	if err := validate.GroupString(name); err != nil {
		return nil, err
	}
	for _, id := range memberIDs {
		if err := validate.UUID(id); err != nil {
			return nil, err
		}
	}

	doc := &models.Group{
		GroupID:   uuid.New().String(),
		GroupName: name,
		Members:   append(models.StringList{}, memberIDs...),
	}

	if err := s.groups.Create(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: group already exists", domain.ErrGroupAction)
		}
		return nil, err
	}

	log.Printf("group created: %s (%s)", doc.GroupName, doc.GroupID)
	return groupSnapshot(doc), nil
}

// Delete removes a group. The admin group can never be deleted,
// regardless of caller privilege.
func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	if err := validate.UUID(groupID); err != nil {
		return err
	}
	doc, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if doc.GroupName == domain.AdminGroup {
		return fmt.Errorf("%w: admin group cannot be deleted", domain.ErrGroupAction)
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return err
	}
	log.Printf("group deleted: %s (%s)", doc.GroupName, groupID)
	return nil
}

// GetByID returns a group snapshot by id
func (s *GroupService) GetByID(ctx context.Context, groupID string) (*domain.Group, error) {
	doc, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return groupSnapshot(doc), nil
}

// GetByName returns a group snapshot by its unique name
func (s *GroupService) GetByName(ctx context.Context, groupName string) (*domain.Group, error) {
	doc, err := s.groups.GetByName(ctx, groupName)
	if err != nil {
		return nil, err
	}
	return groupSnapshot(doc), nil
}

// FindLike returns name-to-id pairs for groups whose name contains the
// given substring. No matches is a not-found condition.
func (s *GroupService) FindLike(ctx context.Context, nameSubstring string) (map[string]string, error) {
	if nameSubstring == "" {
		return nil, fmt.Errorf("%w: group name not given", domain.ErrInput)
	}
	refs, err := s.groups.FindLike(ctx, nameSubstring)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no groups found", domain.ErrGroupNotFound)
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		out[ref.Name] = ref.ID
	}
	return out, nil
}

// GroupsForUser returns name-to-id pairs for every group the given user
// id is a member of
func (s *GroupService) GroupsForUser(ctx context.Context, userID string) (map[string]string, error) {
	if err := validate.UUID(userID); err != nil {
		return nil, err
	}
	refs, err := s.groups.FindByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		out[ref.Name] = ref.ID
	}
	return out, nil
}

// resolveMember resolves a member reference (user id or email address)
// to a user id via the user service
func (s *GroupService) resolveMember(ctx context.Context, ref string) (string, error) {
	if strings.Contains(ref, "@") {
		user, err := s.users.GetByEmail(ctx, ref)
		if err != nil {
			return "", err
		}
		return user.UserID, nil
	}
	if err := validate.UUID(ref); err != nil {
		return "", err
	}
	user, err := s.users.GetByID(ctx, ref)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// AddMember adds a user, referenced by id or email, to the group member
// list. Adding an existing member is an error.
func (s *GroupService) AddMember(ctx context.Context, groupID, memberRef string) ([]string, error) {
	if memberRef == "" {
		return nil, fmt.Errorf("%w: one unique identifier must be provided - user id, email address", domain.ErrInput)
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	userID, err := s.resolveMember(ctx, memberRef)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user not found, can't be added", domain.ErrGroupAction)
		}
		return nil, err
	}

	for _, m := range group.Members {
		if m == userID {
			return nil, fmt.Errorf("%w: user already in group", domain.ErrGroupAction)
		}
	}

	members := append(append(models.StringList{}, group.Members...), userID)
	updated, err := s.groups.Update(ctx, groupID, map[string]interface{}{"members": members})
	if err != nil {
		return nil, err
	}
	return append([]string{}, updated.Members...), nil
}

// RemoveMember removes a user, referenced by id or email, from the group
// member list. With force, the reference must be an id and is dropped if
// present without requiring the user to still resolve - this cleans up
// memberships left behind by a deleted user.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberRef string, force bool) ([]string, error) {
	if memberRef == "" {
		return nil, fmt.Errorf("%w: one unique identifier must be provided - user id, email address", domain.ErrInput)
	}
	if force && strings.Contains(memberRef, "@") {
		return nil, fmt.Errorf("%w: to forcefully remove a user, user id must be provided", domain.ErrInput)
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var userID string
	if force {
		if err := validate.UUID(memberRef); err != nil {
			return nil, err
		}
		userID = memberRef
	} else {
		userID, err = s.resolveMember(ctx, memberRef)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: user not found, can't be removed", domain.ErrGroupAction)
			}
			return nil, err
		}
	}

	members := models.StringList{}
	present := false
	for _, m := range group.Members {
		if m == userID {
			present = true
			continue
		}
		members = append(members, m)
	}
	if !present {
		if force {
			// Forced removal of an id that is already gone is a no-op.
			return append([]string{}, group.Members...), nil
		}
		return nil, fmt.Errorf("%w: user not in group", domain.ErrGroupAction)
	}

	updated, err := s.groups.Update(ctx, groupID, map[string]interface{}{"members": members})
	if err != nil {
		return nil, err
	}
	return append([]string{}, updated.Members...), nil
}

// MembersDetail returns the non-sensitive profile of every member,
// keyed by user id. A lookup failure for any single member fails the
// whole call - no partial results.
func (s *GroupService) MembersDetail(ctx context.Context, groupID string) (map[string]map[string]string, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(group.Members))
	for _, memberID := range group.Members {
		user, err := s.users.GetByID(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("%w: could not get details, user does not exist", domain.ErrGroupAction)
		}
		out[memberID] = user.Profile()
	}
	return out, nil
}

// MemberAttribute returns a single named attribute for every member,
// keyed by user id. Absent attributes are the empty string. As with
// MembersDetail, any member lookup failure fails the whole call.
func (s *GroupService) MemberAttribute(ctx context.Context, groupID, attribute string) (map[string]string, error) {
	if attribute == "" {
		return nil, fmt.Errorf("%w: attribute name required", domain.ErrInput)
	}
	if err := validate.UserString(attribute); err != nil {
		return nil, err
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(group.Members))
	for _, memberID := range group.Members {
		user, err := s.users.GetByID(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("%w: could not get details, user does not exist", domain.ErrGroupAction)
		}
		out[memberID] = user.Field(attribute)
	}
	return out, nil
}
