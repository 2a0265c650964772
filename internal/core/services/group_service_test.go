package services

import (
	"context"
	"testing"

	"authgate/internal/adapters/persistence/memory"
	"authgate/internal/config"
	"authgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroupFixture(t *testing.T) (*GroupService, *UserService) {
	t.Helper()
	store := memory.NewStore()
	users := NewUserService(store.Users(), testConfig())
	groups := NewGroupService(store.Groups(), users)
	require.NoError(t, config.EnsureAdminGroup(context.Background(), store.Groups()))
	return groups, users
}

func TestGroupCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID})
	require.NoError(t, err)
	assert.Equal(t, "engineering", group.GroupName)
	assert.True(t, group.HasMember(alice.UserID))

	_, err = groups.Create(ctx, "engineering", nil)
	assert.ErrorIs(t, err, domain.ErrGroupAction)
}

func TestGroupCreateValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, _ := newGroupFixture(t)

	_, err := groups.Create(ctx, "", nil)
	assert.ErrorIs(t, err, domain.ErrInput)

	_, err = groups.Create(ctx, ".system", nil)
	assert.ErrorIs(t, err, domain.ErrInput)

	_, err = groups.Create(ctx, "eng$", nil)
	assert.ErrorIs(t, err, domain.ErrInput)

	_, err = groups.Create(ctx, "eng", []string{"not-a-uuid"})
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestAdminGroupCannotBeDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, _ := newGroupFixture(t)

	admin, err := groups.GetByName(ctx, domain.AdminGroup)
	require.NoError(t, err)

	err = groups.Delete(ctx, admin.GroupID)
	assert.ErrorIs(t, err, domain.ErrGroupAction)

	// Still there
	_, err = groups.GetByName(ctx, domain.AdminGroup)
	assert.NoError(t, err)
}

func TestGroupDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, _ := newGroupFixture(t)

	group, err := groups.Create(ctx, "temporary", nil)
	require.NoError(t, err)

	require.NoError(t, groups.Delete(ctx, group.GroupID))

	_, err = groups.GetByID(ctx, group.GroupID)
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	assert.ErrorIs(t, groups.Delete(ctx, uuid.New().String()), domain.ErrGroupNotFound)
}

func TestAddMemberByIDAndEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	bob, _, err := users.Create(ctx, testDomain, "bob@example.com")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", nil)
	require.NoError(t, err)

	members, err := groups.AddMember(ctx, group.GroupID, alice.UserID)
	require.NoError(t, err)
	assert.Contains(t, members, alice.UserID)

	members, err = groups.AddMember(ctx, group.GroupID, "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, members, bob.UserID)
	assert.Len(t, members, 2)
}

func TestAddMemberErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID})
	require.NoError(t, err)

	_, err = groups.AddMember(ctx, group.GroupID, alice.UserID)
	assert.ErrorIs(t, err, domain.ErrGroupAction)

	_, err = groups.AddMember(ctx, group.GroupID, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrGroupAction)

	_, err = groups.AddMember(ctx, group.GroupID, "")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestRemoveMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID})
	require.NoError(t, err)

	members, err := groups.RemoveMember(ctx, group.GroupID, "alice@example.com", false)
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = groups.RemoveMember(ctx, group.GroupID, alice.UserID, false)
	assert.ErrorIs(t, err, domain.ErrGroupAction)
}

func TestForceRemoveMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID})
	require.NoError(t, err)

	// Deleting the user leaves a dangling member id
	require.NoError(t, users.Delete(ctx, alice.UserID))

	// Non-forced removal cannot resolve the user anymore
	_, err = groups.RemoveMember(ctx, group.GroupID, alice.UserID, false)
	assert.ErrorIs(t, err, domain.ErrGroupAction)

	// Force removes the dangling id without resolution
	members, err := groups.RemoveMember(ctx, group.GroupID, alice.UserID, true)
	require.NoError(t, err)
	assert.Empty(t, members)

	// Forcing an id that is already gone is a no-op
	members, err = groups.RemoveMember(ctx, group.GroupID, alice.UserID, true)
	require.NoError(t, err)
	assert.Empty(t, members)

	// Force with an email reference is an input error
	_, err = groups.RemoveMember(ctx, group.GroupID, "alice@example.com", true)
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestGroupFindLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, _ := newGroupFixture(t)

	eng, err := groups.Create(ctx, "engineering", nil)
	require.NoError(t, err)
	_, err = groups.Create(ctx, "finance", nil)
	require.NoError(t, err)

	matches, err := groups.FindLike(ctx, "eng")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, eng.GroupID, matches["engineering"])

	_, err = groups.FindLike(ctx, "nothing-matches")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	_, err = groups.FindLike(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestGroupsForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)

	eng, err := groups.Create(ctx, "engineering", []string{alice.UserID})
	require.NoError(t, err)
	_, err = groups.Create(ctx, "finance", nil)
	require.NoError(t, err)

	memberships, err := groups.GroupsForUser(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, eng.GroupID, memberships["engineering"])
}

func TestMembersDetail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	_, err = users.SetAttribute(ctx, alice.UserID, "displayName", "Alice")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID})
	require.NoError(t, err)

	details, err := groups.MembersDetail(ctx, group.GroupID)
	require.NoError(t, err)
	require.Contains(t, details, alice.UserID)
	assert.Equal(t, "alice@example.com", details[alice.UserID]["email"])
	assert.Equal(t, "Alice", details[alice.UserID]["displayName"])
	assert.NotContains(t, details[alice.UserID], "resetCode")
}

func TestMembersDetailNoPartialResults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	bob, _, err := users.Create(ctx, testDomain, "bob@example.com")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID, bob.UserID})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, bob.UserID))

	_, err = groups.MembersDetail(ctx, group.GroupID)
	assert.ErrorIs(t, err, domain.ErrGroupAction)
}

func TestMemberAttribute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	groups, users := newGroupFixture(t)

	alice, _, err := users.Create(ctx, testDomain, "alice@example.com")
	require.NoError(t, err)
	bob, _, err := users.Create(ctx, testDomain, "bob@example.com")
	require.NoError(t, err)
	_, err = users.SetAttribute(ctx, alice.UserID, "team", "platform")
	require.NoError(t, err)

	group, err := groups.Create(ctx, "engineering", []string{alice.UserID, bob.UserID})
	require.NoError(t, err)

	values, err := groups.MemberAttribute(ctx, group.GroupID, "team")
	require.NoError(t, err)
	assert.Equal(t, "platform", values[alice.UserID])
	assert.Empty(t, values[bob.UserID])

	_, err = groups.MemberAttribute(ctx, group.GroupID, "")
	assert.ErrorIs(t, err, domain.ErrInput)
}
