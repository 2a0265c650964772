package services

import (
	"context"
	"errors"
	"fmt"

	"authgate/internal/core/domain"
)

// Principal is the resolved identity behind a token subject. Exactly one
// of User or App is set.
type Principal struct {
	User *domain.User
	App  *domain.App
}

// IsApp reports whether the principal is an app identity
func (p *Principal) IsApp() bool {
	return p.App != nil
}

// Predicate is an authorization check applied to a resolved principal
type Predicate func(ctx context.Context, principal *Principal) error

// AuthzService resolves token subjects to principals and evaluates
// authorization predicates against them
type AuthzService struct {
	users  *UserService
	groups *GroupService
	apps   *AppService
}

// NewAuthzService creates a new authorization service
func NewAuthzService(users *UserService, groups *GroupService, apps *AppService) *AuthzService {
	return &AuthzService{users: users, groups: groups, apps: apps}
}

// Resolve maps a token subject to a principal. App names are tried
// before user emails, so an app whose name collides with an email wins.
func (s *AuthzService) Resolve(ctx context.Context, subject string) (*Principal, error) {
	app, err := s.apps.GetByName(ctx, subject)
	if err == nil {
		return &Principal{App: app}, nil
	}
	// A subject that is not a well-formed app name may still be a valid
	// email, so input rejections fall through to the user lookup too.
	if !errors.Is(err, domain.ErrAppNotFound) && !errors.Is(err, domain.ErrInput) {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err == nil {
		return &Principal{User: user}, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) && !errors.Is(err, domain.ErrInput) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: unknown subject", domain.ErrAccessDenied)
}

// AdminRequired denies users outside the admin group. App principals
// pass unconditionally; they are gated by WriteEnabledRequired instead.
func (s *AuthzService) AdminRequired() Predicate {
	return func(ctx context.Context, principal *Principal) error {
		if principal.IsApp() {
			return nil
		}
		adminGroup, err := s.groups.GetByName(ctx, domain.AdminGroup)
		if err != nil {
			if errors.Is(err, domain.ErrGroupNotFound) {
				return fmt.Errorf("%w: admin privileges required", domain.ErrAccessDenied)
			}
			return err
		}
		if !adminGroup.HasMember(principal.User.UserID) {
			return fmt.Errorf("%w: admin privileges required", domain.ErrAccessDenied)
		}
		return nil
	}
}

// WriteEnabledRequired denies app principals whose writeEnabled
// attribute is not "True". User principals pass unconditionally.
func (s *AuthzService) WriteEnabledRequired() Predicate {
	return func(ctx context.Context, principal *Principal) error {
		if !principal.IsApp() {
			return nil
		}
		if !principal.App.WriteEnabled() {
			return fmt.Errorf("%w: app is not write enabled", domain.ErrAccessDenied)
		}
		return nil
	}
}

// Authorize resolves the subject and applies every predicate in order,
// returning the principal when all pass
func (s *AuthzService) Authorize(ctx context.Context, subject string, predicates ...Predicate) (*Principal, error) {
	principal, err := s.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	for _, predicate := range predicates {
		if err := predicate(ctx, principal); err != nil {
			return nil, err
		}
	}
	return principal, nil
}
