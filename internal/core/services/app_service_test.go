package services

import (
	"context"
	"testing"

	"authgate/internal/adapters/persistence/memory"
	"authgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppService() *AppService {
	return NewAppService(memory.NewStore().Apps())
}

func TestAppCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	creds, err := svc.Create(ctx, "reporting", map[string]string{"team": "data"})
	require.NoError(t, err)

	assert.Equal(t, "reporting", creds.AppName)
	assert.Len(t, creds.Key, 32)
	assert.Len(t, creds.Secret, 48)
	assert.NotEmpty(t, creds.AppID)

	// The snapshot never carries the secret
	app, err := svc.GetByID(ctx, creds.AppID)
	require.NoError(t, err)
	assert.Equal(t, creds.Key, app.Key)
	assert.Equal(t, "data", app.Attributes["team"])
}

func TestAppCreateDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	_, err := svc.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "reporting", nil)
	assert.ErrorIs(t, err, domain.ErrAppAction)
}

func TestAppCreateValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	_, err := svc.Create(ctx, "", nil)
	assert.ErrorIs(t, err, domain.ErrInput)

	_, err = svc.Create(ctx, "bad$name", nil)
	assert.ErrorIs(t, err, domain.ErrInput)

	_, err = svc.Create(ctx, "fine", map[string]string{"k;ey": "v"})
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestAppAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	creds, err := svc.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	ok, err := svc.Authenticate(ctx, creds.AppID, creds.Secret)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authenticate(ctx, creds.AppID, "wrong-secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	creds, err := svc.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	byName, err := svc.GetByName(ctx, "reporting")
	require.NoError(t, err)
	assert.Equal(t, creds.AppID, byName.AppID)

	byKey, err := svc.GetByKey(ctx, creds.Key)
	require.NoError(t, err)
	assert.Equal(t, creds.AppID, byKey.AppID)
}

func TestAppWriteEnabledAttribute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	creds, err := svc.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	app, err := svc.GetByID(ctx, creds.AppID)
	require.NoError(t, err)
	assert.False(t, app.WriteEnabled())

	app, err = svc.SetAttribute(ctx, creds.AppID, domain.AttrWriteEnabled, "True")
	require.NoError(t, err)
	assert.True(t, app.WriteEnabled())

	_, err = svc.SetAttribute(ctx, creds.AppID, domain.AttrWriteEnabled, "true")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestAppDeleteAndFind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newAppService()

	creds, err := svc.Create(ctx, "reporting", nil)
	require.NoError(t, err)

	matches, err := svc.FindLike(ctx, "rep")
	require.NoError(t, err)
	assert.Equal(t, creds.AppID, matches["reporting"])

	require.NoError(t, svc.Delete(ctx, creds.AppID))

	_, err = svc.GetByID(ctx, creds.AppID)
	assert.ErrorIs(t, err, domain.ErrAppNotFound)

	_, err = svc.FindLike(ctx, "rep")
	assert.ErrorIs(t, err, domain.ErrAppNotFound)
}
