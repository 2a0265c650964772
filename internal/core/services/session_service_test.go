package services

import (
	"context"
	"testing"

	"authgate/internal/adapters/persistence/memory"
	"authgate/internal/config"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	sessions *SessionService
	users    *UserService
	groups   *GroupService
	apps     *AppService
	cfg      *config.Config
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store := memory.NewStore()
	cfg := testConfig()
	users := NewUserService(store.Users(), cfg)
	groups := NewGroupService(store.Groups(), users)
	apps := NewAppService(store.Apps())
	require.NoError(t, config.EnsureAdminGroup(context.Background(), store.Groups()))
	return &sessionFixture{
		sessions: NewSessionService(users, groups, apps, cfg),
		users:    users,
		groups:   groups,
		apps:     apps,
		cfg:      cfg,
	}
}

// activeUser creates a user and walks it to active status
func (f *sessionFixture) activeUser(t *testing.T, email, pw string) *domain.User {
	t.Helper()
	ctx := context.Background()
	_, code, err := f.users.Create(ctx, testDomain, email)
	require.NoError(t, err)
	user, err := f.users.RedeemResetCode(ctx, email, code, pw)
	require.NoError(t, err)
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	user := f.activeUser(t, "alice@example.com", "password-1")
	_, err := f.groups.Create(ctx, "engineering", []string{user.UserID})
	require.NoError(t, err)

	pair, err := f.sessions.Login(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(pair.AccessToken, f.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, []string{"engineering"}, claims.Groups)
	assert.Empty(t, claims.AppID)

	refreshClaims, err := jwt.ValidateRefreshToken(pair.RefreshToken, f.cfg.JWT.RefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", refreshClaims.Subject)
	assert.NotEmpty(t, refreshClaims.ID)

	// The jti is persisted for later refresh validation
	after, err := f.users.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, refreshClaims.ID, after.RefreshJti)
}

func TestLoginOmitsAdminGroupFromClaims(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	user := f.activeUser(t, "alice@example.com", "password-1")
	admin, err := f.groups.GetByName(ctx, domain.AdminGroup)
	require.NoError(t, err)
	_, err = f.groups.AddMember(ctx, admin.GroupID, user.UserID)
	require.NoError(t, err)

	pair, err := f.sessions.Login(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(pair.AccessToken, f.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.NotContains(t, claims.Groups, domain.AdminGroup)
}

func TestLoginUniformDenial(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	f.activeUser(t, "alice@example.com", "password-1")

	// Unknown email, wrong password, and non-active status all produce
	// the same error
	_, err := f.sessions.Login(ctx, "nobody@example.com", "password-1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.sessions.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	user, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	_, err = f.users.UpdateNamedAttribute(ctx, user.UserID, "status", domain.StatusDisabled)
	require.NoError(t, err)

	_, err = f.sessions.Login(ctx, "alice@example.com", "password-1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	f.activeUser(t, "alice@example.com", "password-1")

	pair, err := f.sessions.Login(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	accessToken, err := f.sessions.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(accessToken, f.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
}

func TestRefreshSupersededByNewLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	f.activeUser(t, "alice@example.com", "password-1")

	first, err := f.sessions.Login(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	// A second login rotates the stored jti
	second, err := f.sessions.Login(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	_, err = f.sessions.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrStaleRefresh)

	_, err = f.sessions.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshInvalidatedByReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	user := f.activeUser(t, "alice@example.com", "password-1")

	pair, err := f.sessions.Login(ctx, "alice@example.com", "password-1")
	require.NoError(t, err)

	_, err = f.users.ResetPassword(ctx, user.UserID, testDomain)
	require.NoError(t, err)

	_, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrStaleRefresh)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	_, err := f.sessions.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestAppToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	creds, err := f.apps.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	token, err := f.sessions.AppToken(ctx, creds.Key, creds.Secret)
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(token, f.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "reporting", claims.Subject)
	assert.Equal(t, creds.AppID, claims.AppID)
	assert.Nil(t, claims.Groups)
}

func TestAppTokenDenied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSessionFixture(t)

	creds, err := f.apps.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	_, err = f.sessions.AppToken(ctx, "unknown-key", creds.Secret)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.sessions.AppToken(ctx, creds.Key, "wrong-secret")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
