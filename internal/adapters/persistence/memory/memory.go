// Package memory is an in-process document store implementing the
// repository contracts. It backs the dev store driver and the service
// test suites; semantics (duplicate detection, unique-lookup rules,
// partial-field merge) mirror the gorm backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/validate"
)

// Store holds the three in-memory collections behind one lock. One lock
// is enough: the contract only promises per-document atomicity, and the
// read-modify-write sequences above this layer are last-writer-wins by
// design.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*models.User  // keyed by UserID
	groups map[string]*models.Group // keyed by GroupID
	apps   map[string]*models.App   // keyed by AppID
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:  make(map[string]*models.User),
		groups: make(map[string]*models.Group),
		apps:   make(map[string]*models.App),
	}
}

// Users returns the users-collection repository
func (s *Store) Users() repositories.UserRepository { return &userRepo{s: s} }

// Groups returns the groups-collection repository
func (s *Store) Groups() repositories.GroupRepository { return &groupRepo{s: s} }

// Apps returns the apps-collection repository
func (s *Store) Apps() repositories.AppRepository { return &appRepo{s: s} }

func copyUser(u *models.User) *models.User {
	out := *u
	out.Attributes = make(models.StringMap, len(u.Attributes))
	for k, v := range u.Attributes {
		out.Attributes[k] = v
	}
	return &out
}

func copyGroup(g *models.Group) *models.Group {
	out := *g
	out.Members = append(models.StringList{}, g.Members...)
	return &out
}

func copyApp(a *models.App) *models.App {
	out := *a
	out.Attributes = make(models.StringMap, len(a.Attributes))
	for k, v := range a.Attributes {
		out.Attributes[k] = v
	}
	return &out
}

// ---- users ----

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if err := validate.Email(user.Email); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.UserID == user.UserID {
			return fmt.Errorf("%w: an account exists with this email address", domain.ErrDuplicate)
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.UserID] = copyUser(user)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if err := validate.UserString(userID); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	return r.findOne(func(u *models.User) bool { return u.Email == email })
}

func (r *userRepo) GetByResetCode(ctx context.Context, resetCode string) (*models.User, error) {
	if err := validate.UserString(resetCode); err != nil {
		return nil, err
	}
	if resetCode == "" {
		return nil, fmt.Errorf("%w: reset code required", domain.ErrInput)
	}
	return r.findOne(func(u *models.User) bool { return u.ResetCode == resetCode })
}

func (r *userRepo) findOne(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *models.User
	for _, u := range r.s.users {
		if match(u) {
			if found != nil {
				return nil, domain.ErrTooManyRecords
			}
			found = u
		}
	}
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(found), nil
}

func (r *userRepo) Update(ctx context.Context, userID string, fields map[string]interface{}) (*models.User, error) {
	if err := validate.UserString(userID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates given", domain.ErrInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	// Apply the fieldset to a copy and swap it in only when every field
	// passes, so a rejected field leaves the stored document untouched.
	merged := copyUser(u)
	for name, value := range fields {
		// Credential hashes are server-generated and may contain
		// denylisted characters.
		if name != "passwordHash" {
			if s, ok := value.(string); ok {
				if err := validate.UserString(s); err != nil {
					return nil, err
				}
			}
		}
		switch name {
		case "email":
			merged.Email = value.(string)
		case "status":
			merged.Status = value.(string)
		case "passwordHash":
			merged.PasswordHash = value.(string)
		case "resetCode":
			merged.ResetCode = value.(string)
		case "resetExpiry":
			merged.ResetExpiry = value.(string)
		case "refreshJti":
			merged.RefreshJti = value.(string)
		case "attributes":
			attrs, ok := value.(models.StringMap)
			if !ok {
				return nil, fmt.Errorf("%w: attributes must be a string map", domain.ErrInput)
			}
			for k, v := range attrs {
				if err := validate.UserString(k); err != nil {
					return nil, err
				}
				if err := validate.UserString(v); err != nil {
					return nil, err
				}
			}
			merged.Attributes = attrs
		default:
			return nil, fmt.Errorf("%w: unknown user field %q", domain.ErrInput, name)
		}
	}
	merged.UpdatedAt = time.Now()
	r.s.users[userID] = merged
	return copyUser(merged), nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	if err := validate.UserString(userID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, userID)
	return nil
}

func (r *userRepo) FindLike(ctx context.Context, emailSubstring string) ([]repositories.NameRef, error) {
	if err := validate.UserString(emailSubstring); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var refs []repositories.NameRef
	for _, u := range r.s.users {
		if strings.Contains(u.Email, emailSubstring) {
			refs = append(refs, repositories.NameRef{ID: u.UserID, Name: u.Email})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (r *userRepo) ListPendingResets(ctx context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.User
	for _, u := range r.s.users {
		if u.ResetCode != "" {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

// ---- groups ----

type groupRepo struct {
	s *Store
}

func (r *groupRepo) Create(ctx context.Context, group *models.Group) error {
	if err := validate.GroupString(group.GroupName); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.GroupName == group.GroupName || g.GroupID == group.GroupID {
			return fmt.Errorf("%w: a group exists with this name", domain.ErrDuplicate)
		}
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	r.s.groups[group.GroupID] = copyGroup(group)
	return nil
}

func (r *groupRepo) GetByID(ctx context.Context, groupID string) (*models.Group, error) {
	if err := validate.GroupString(groupID); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return copyGroup(g), nil
}

func (r *groupRepo) GetByName(ctx context.Context, groupName string) (*models.Group, error) {
	if err := validate.GroupString(groupName); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *models.Group
	for _, g := range r.s.groups {
		if g.GroupName == groupName {
			if found != nil {
				return nil, domain.ErrTooManyRecords
			}
			found = g
		}
	}
	if found == nil {
		return nil, domain.ErrGroupNotFound
	}
	return copyGroup(found), nil
}

func (r *groupRepo) Update(ctx context.Context, groupID string, fields map[string]interface{}) (*models.Group, error) {
	if err := validate.GroupString(groupID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates given", domain.ErrInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	merged := copyGroup(g)
	for name, value := range fields {
		if s, ok := value.(string); ok {
			if err := validate.GroupString(s); err != nil {
				return nil, err
			}
		}
		switch name {
		case "groupName":
			merged.GroupName = value.(string)
		case "members":
			members, ok := value.(models.StringList)
			if !ok {
				return nil, fmt.Errorf("%w: members must be a string list", domain.ErrInput)
			}
			for _, m := range members {
				if err := validate.UserString(m); err != nil {
					return nil, err
				}
			}
			merged.Members = members
		default:
			return nil, fmt.Errorf("%w: unknown group field %q", domain.ErrInput, name)
		}
	}
	merged.UpdatedAt = time.Now()
	r.s.groups[groupID] = merged
	return copyGroup(merged), nil
}

func (r *groupRepo) Delete(ctx context.Context, groupID string) error {
	if err := validate.GroupString(groupID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[groupID]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(r.s.groups, groupID)
	return nil
}

func (r *groupRepo) FindLike(ctx context.Context, nameSubstring string) ([]repositories.NameRef, error) {
	if err := validate.GroupString(nameSubstring); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var refs []repositories.NameRef
	for _, g := range r.s.groups {
		if strings.Contains(g.GroupName, nameSubstring) {
			refs = append(refs, repositories.NameRef{ID: g.GroupID, Name: g.GroupName})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (r *groupRepo) FindByMember(ctx context.Context, userID string) ([]repositories.NameRef, error) {
	if err := validate.UserString(userID); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var refs []repositories.NameRef
	for _, g := range r.s.groups {
		for _, m := range g.Members {
			if m == userID {
				refs = append(refs, repositories.NameRef{ID: g.GroupID, Name: g.GroupName})
				break
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// ---- apps ----

type appRepo struct {
	s *Store
}

func (r *appRepo) Create(ctx context.Context, app *models.App) error {
	if err := validate.UserString(app.AppName); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.apps {
		if a.AppName == app.AppName || a.AppID == app.AppID || a.Key == app.Key {
			return fmt.Errorf("%w: an app exists with this name", domain.ErrDuplicate)
		}
	}
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	r.s.apps[app.AppID] = copyApp(app)
	return nil
}

func (r *appRepo) GetByID(ctx context.Context, appID string) (*models.App, error) {
	if err := validate.UserString(appID); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.apps[appID]
	if !ok {
		return nil, domain.ErrAppNotFound
	}
	return copyApp(a), nil
}

func (r *appRepo) GetByName(ctx context.Context, appName string) (*models.App, error) {
	if err := validate.UserString(appName); err != nil {
		return nil, err
	}
	return r.findOne(func(a *models.App) bool { return a.AppName == appName })
}

func (r *appRepo) GetByKey(ctx context.Context, key string) (*models.App, error) {
	if err := validate.UserString(key); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: app key required", domain.ErrInput)
	}
	return r.findOne(func(a *models.App) bool { return a.Key == key })
}

func (r *appRepo) findOne(match func(*models.App) bool) (*models.App, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *models.App
	for _, a := range r.s.apps {
		if match(a) {
			if found != nil {
				return nil, domain.ErrTooManyRecords
			}
			found = a
		}
	}
	if found == nil {
		return nil, domain.ErrAppNotFound
	}
	return copyApp(found), nil
}

func (r *appRepo) Update(ctx context.Context, appID string, fields map[string]interface{}) (*models.App, error) {
	if err := validate.UserString(appID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates given", domain.ErrInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[appID]
	if !ok {
		return nil, domain.ErrAppNotFound
	}
	merged := copyApp(a)
	for name, value := range fields {
		if name != "secretHash" {
			if s, ok := value.(string); ok {
				if err := validate.UserString(s); err != nil {
					return nil, err
				}
			}
		}
		switch name {
		case "appName":
			merged.AppName = value.(string)
		case "secretHash":
			merged.SecretHash = value.(string)
		case "attributes":
			attrs, ok := value.(models.StringMap)
			if !ok {
				return nil, fmt.Errorf("%w: attributes must be a string map", domain.ErrInput)
			}
			for k, v := range attrs {
				if err := validate.UserString(k); err != nil {
					return nil, err
				}
				if err := validate.UserString(v); err != nil {
					return nil, err
				}
			}
			merged.Attributes = attrs
		default:
			return nil, fmt.Errorf("%w: unknown app field %q", domain.ErrInput, name)
		}
	}
	merged.UpdatedAt = time.Now()
	r.s.apps[appID] = merged
	return copyApp(merged), nil
}

func (r *appRepo) Delete(ctx context.Context, appID string) error {
	if err := validate.UserString(appID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.apps[appID]; !ok {
		return domain.ErrAppNotFound
	}
	delete(r.s.apps, appID)
	return nil
}

func (r *appRepo) FindLike(ctx context.Context, nameSubstring string) ([]repositories.NameRef, error) {
	if err := validate.UserString(nameSubstring); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var refs []repositories.NameRef
	for _, a := range r.s.apps {
		if strings.Contains(a.AppName, nameSubstring) {
			refs = append(refs, repositories.NameRef{ID: a.AppID, Name: a.AppName})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}
