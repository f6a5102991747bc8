package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type fakeUserRepo struct {
	all    []*entity.User
	byRole map[entity.Role][]*entity.User
	byZone map[string][]*entity.User
	byIDs  []*entity.User
	err    error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return nil, entity.ErrUserNotFound
}

func (f *fakeUserRepo) GetVerified(ctx context.Context) ([]*entity.User, error) {
	return f.all, f.err
}

func (f *fakeUserRepo) GetVerifiedByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	return f.byRole[role], f.err
}

func (f *fakeUserRepo) GetVerifiedByZone(ctx context.Context, zone string) ([]*entity.User, error) {
	return f.byZone[zone], f.err
}

func (f *fakeUserRepo) GetVerifiedByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	return f.byIDs, f.err
}

func testUser(id, email string, role entity.Role) *entity.User {
	return &entity.User{ID: id, Email: email, Name: "User " + id, Role: role}
}

func TestResolveAll(t *testing.T) {
	resolver := NewRecipientResolver(&fakeUserRepo{
		all: []*entity.User{
			testUser("u1", "u1@ops.local", entity.RoleAdmin),
			testUser("u2", "u2@ops.local", entity.RoleResponder),
		},
	})

	recipients, err := resolver.Resolve(context.Background(), entity.SpecForAll())
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
}

func TestResolveRole(t *testing.T) {
	resolver := NewRecipientResolver(&fakeUserRepo{
		byRole: map[entity.Role][]*entity.User{
			entity.RoleResponder: {testUser("u2", "u2@ops.local", entity.RoleResponder)},
		},
	})

	recipients, err := resolver.Resolve(context.Background(), entity.SpecForRole(entity.RoleResponder))
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "u2", recipients[0].ID)
}

func TestResolveDeduplicates(t *testing.T) {
	dup := testUser("u1", "u1@ops.local", entity.RoleAdmin)
	resolver := NewRecipientResolver(&fakeUserRepo{
		byIDs: []*entity.User{dup, dup, testUser("u2", "u2@ops.local", entity.RoleOperator)},
	})

	recipients, err := resolver.Resolve(context.Background(), entity.SpecForUsers([]string{"u1", "u1", "u2"}))
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
}

func TestResolveEmptyZoneSpecFails(t *testing.T) {
	resolver := NewRecipientResolver(&fakeUserRepo{})

	_, err := resolver.Resolve(context.Background(), entity.SpecForZone(""))
	assert.ErrorIs(t, err, entity.ErrEmptyZone)
}

func TestResolveEmptySpecificSpecFails(t *testing.T) {
	resolver := NewRecipientResolver(&fakeUserRepo{})

	_, err := resolver.Resolve(context.Background(), entity.SpecForUsers(nil))
	assert.ErrorIs(t, err, entity.ErrEmptyRecipients)
}

func TestResolveValidZoneWithNoUsersIsSuccess(t *testing.T) {
	resolver := NewRecipientResolver(&fakeUserRepo{byZone: map[string][]*entity.User{}})

	recipients, err := resolver.Resolve(context.Background(), entity.SpecForZone("north-gate"))
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestResolveDirectoryFailure(t *testing.T) {
	resolver := NewRecipientResolver(&fakeUserRepo{err: errors.New("connection refused")})

	_, err := resolver.Resolve(context.Background(), entity.SpecForAll())
	assert.ErrorIs(t, err, entity.ErrRecipientResolution)
}
