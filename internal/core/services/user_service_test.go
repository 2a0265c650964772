package services

import (
	"context"
	"testing"

	"authgate/internal/adapters/persistence/memory"
	"authgate/internal/config"
	"authgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDomain = "authgate.test"

func testConfig() *config.Config {
	return &config.Config{
		AppMode:       "dev",
		ServiceDomain: testDomain,
		SiteURL:       "http://localhost:8000",
		JWT: config.JWTConfig{
			Secret:           "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTokenSecs:  30,
			AppTokenDays:     30,
			RefreshTokenDays: 7,
		},
		Reset: config.ResetConfig{ValidityDays: 1},
	}
}

func newUserService() (*UserService, *memory.Store) {
	store := memory.NewStore()
	return NewUserService(store.Users(), testConfig()), store
}

func TestUserCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, resetCode, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNew, user.Status)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.UserID)
	assert.Greater(t, len(resetCode), 100)
	assert.NotEmpty(t, user.ResetExpiry)
}

func TestUserCreateDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	_, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, testDomain, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrUserAction)
}

func TestUserCreateInvalidEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	for _, email := range []string{"", "no-at-sign.com", "a$b@example.com", "a@b"} {
		_, _, err := svc.Create(ctx, testDomain, email)
		assert.ErrorIs(t, err, domain.ErrInput, "email %q", email)
	}
}

func TestResetCodesAreDistinct(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	_, code1, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	_, code2, err := svc.Create(ctx, testDomain, "bob@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, code1, code2)
}

func TestNewUserCannotAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	ok, err := svc.Authenticate(ctx, user.UserID, "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, resetCode, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	// Redeem the initial code to activate the account
	activated, err := svc.RedeemResetCode(ctx, "alice@example.com", resetCode, "first-password")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, activated.Status)
	assert.Empty(t, activated.ResetCode)

	ok, err := svc.Authenticate(ctx, user.UserID, "first-password")
	require.NoError(t, err)
	assert.True(t, ok)

	// A reset scrambles the old password immediately
	newCode, err := svc.ResetPassword(ctx, user.UserID, testDomain)
	require.NoError(t, err)
	assert.NotEqual(t, resetCode, newCode)

	ok, err = svc.Authenticate(ctx, user.UserID, "first-password")
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := svc.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReset, after.Status)

	// Redeeming the new code sets the new password
	_, err = svc.RedeemResetCode(ctx, "alice@example.com", newCode, "second-password")
	require.NoError(t, err)

	ok, err = svc.Authenticate(ctx, user.UserID, "second-password")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedeemRejectsWrongCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	_, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	_, err = svc.RedeemResetCode(ctx, "alice@example.com", "wrong-code", "new-password")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestRedeemRejectsActiveAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	_, resetCode, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	_, err = svc.RedeemResetCode(ctx, "alice@example.com", resetCode, "first-password")
	require.NoError(t, err)

	// Active accounts are not resetable without a new code being issued
	_, err = svc.RedeemResetCode(ctx, "alice@example.com", resetCode, "other-password")
	assert.ErrorIs(t, err, domain.ErrUserAction)
}

func TestRedeemRejectsShortPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	_, resetCode, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	_, err = svc.RedeemResetCode(ctx, "alice@example.com", resetCode, "short")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestResetClearsRefreshJti(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, resetCode, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	_, err = svc.RedeemResetCode(ctx, "alice@example.com", resetCode, "first-password")
	require.NoError(t, err)

	require.NoError(t, svc.SetRefreshJti(ctx, user.UserID, "jti-1"))

	_, err = svc.ResetPassword(ctx, user.UserID, testDomain)
	require.NoError(t, err)

	after, err := svc.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, after.RefreshJti)
}

func TestUpdateNamedAttribute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	updated, err := svc.UpdateNamedAttribute(ctx, user.UserID, "status", domain.StatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisabled, updated.Status)

	_, err = svc.UpdateNamedAttribute(ctx, user.UserID, "status", "banana")
	assert.ErrorIs(t, err, domain.ErrInput)

	_, err = svc.UpdateNamedAttribute(ctx, user.UserID, "email", "other@example.com")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestSetAttribute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	updated, err := svc.SetAttribute(ctx, user.UserID, "displayName", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Attributes["displayName"])

	// Reserved keys never enter the open bag
	_, err = svc.SetAttribute(ctx, user.UserID, "passwordHash", "x")
	assert.ErrorIs(t, err, domain.ErrInput)

	// Injection characters are rejected in both key and value
	_, err = svc.SetAttribute(ctx, user.UserID, "a$b", "x")
	assert.ErrorIs(t, err, domain.ErrInput)
	_, err = svc.SetAttribute(ctx, user.UserID, "note", "a;b")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestUserDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.UserID))

	_, err = svc.GetByID(ctx, user.UserID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "not-a-uuid"), domain.ErrInput)
}

func TestUserFindLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	alice, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, testDomain, "bob@other.org")
	require.NoError(t, err)

	matches, err := svc.FindLike(ctx, "example")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, alice.UserID, matches["alice@example.com"])

	_, err = svc.FindLike(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestProfileOmitsCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newUserService()

	user, _, err := svc.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	profile := user.Profile()
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.Equal(t, domain.StatusNew, profile["status"])
	assert.NotContains(t, profile, "resetCode")
	assert.NotContains(t, profile, "passwordHash")
	assert.NotContains(t, profile, "refreshJti")
}
