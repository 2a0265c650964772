package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"authgate/internal/config"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/jwt"

	"github.com/google/uuid"
)

// SessionService converts verified credentials into bearer tokens and
// validates refresh requests against the stored refresh jti
type SessionService struct {
	users  *UserService
	groups *GroupService
	apps   *AppService
	cfg    *config.Config
}

// NewSessionService creates a new session service
func NewSessionService(users *UserService, groups *GroupService, apps *AppService, cfg *config.Config) *SessionService {
	return &SessionService{users: users, groups: groups, apps: apps, cfg: cfg}
}

// TokenPair represents an access and refresh token issued at login
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login verifies a user credential and mints a token pair. Every failure
// path returns the same access-denied error so the response never leaks
// whether the password was wrong or the account inactive.
func (s *SessionService) Login(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrAccessDenied
	}
	if user.Status != domain.StatusActive {
		return nil, domain.ErrAccessDenied
	}
	ok, err := s.users.Authenticate(ctx, user.UserID, plaintext)
	if err != nil || !ok {
		return nil, domain.ErrAccessDenied
	}

	groupClaims, err := s.groupClaims(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := jwt.GenerateAccessToken(email, groupClaims, "", s.cfg.JWT.Secret, s.cfg.JWT.AccessTTL())
	if err != nil {
		return nil, err
	}

	// One refresh token per user: persisting the new jti supersedes any
	// prior session's refresh capability.
	jti := uuid.New().String()
	refreshToken, err := jwt.GenerateRefreshToken(email, jti, s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTTL())
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshJti(ctx, user.UserID, jti); err != nil {
		return nil, err
	}

	log.Printf("user logged in: %s", user.UserID)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// AppToken verifies an app key/secret pair and mints a long-lived access
// token. Apps never receive refresh tokens.
func (s *SessionService) AppToken(ctx context.Context, key, secret string) (string, error) {
	app, err := s.apps.GetByKey(ctx, key)
	if err != nil {
		return "", domain.ErrAccessDenied
	}
	ok, err := s.apps.Authenticate(ctx, app.AppID, secret)
	if err != nil || !ok {
		return "", domain.ErrAccessDenied
	}

	token, err := jwt.GenerateAccessToken(app.AppName, nil, app.AppID, s.cfg.JWT.Secret, s.cfg.JWT.AppTTL())
	if err != nil {
		return "", err
	}

	log.Printf("app token issued: %s", app.AppID)
	return token, nil
}

// Refresh validates a refresh token and mints a new access token. A jti
// that no longer matches the stored value means the token was superseded
// by a newer login or invalidated by a reset; the caller must
// re-authenticate.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return "", domain.ErrAccessDenied
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return "", domain.ErrAccessDenied
	}
	if user.RefreshJti == "" || claims.ID != user.RefreshJti {
		return "", fmt.Errorf("%w: please log in again", domain.ErrStaleRefresh)
	}

	groupClaims, err := s.groupClaims(ctx, user.UserID)
	if err != nil {
		return "", err
	}

	// The refresh token itself stays valid until superseded; only a new
	// access token is minted here.
	return jwt.GenerateAccessToken(claims.Subject, groupClaims, "", s.cfg.JWT.Secret, s.cfg.JWT.AccessTTL())
}

// groupClaims returns the user's group names for token claims, excluding
// the admin group name itself
func (s *SessionService) groupClaims(ctx context.Context, userID string) ([]string, error) {
	groups, err := s.groups.GroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		if name == domain.AdminGroup {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
