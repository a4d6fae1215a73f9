package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-commerce/storefront/internal/platform/cache"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

type mockRepo struct {
	roles        []Role
	memberships  map[int64][]int64
	nextID       int64
	lookupCalls  int
	listForCalls int
}

func newMockRepo(roles ...Role) *mockRepo {
	m := &mockRepo{memberships: map[int64][]int64{}, nextID: 100}
	m.roles = append(m.roles, roles...)
	return m
}

func (m *mockRepo) ListRoles(ctx context.Context, showHidden bool) ([]Role, error) {
	var out []Role
	for _, r := range m.roles {
		if r.Active || showHidden {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) GetRoleByID(ctx context.Context, id int64) (Role, error) {
	for _, r := range m.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return Role{}, ErrNotFound
}

func (m *mockRepo) GetRoleBySystemName(ctx context.Context, systemName string) (Role, error) {
	m.lookupCalls++
	for _, r := range m.roles {
		if r.SystemName == systemName {
			return r, nil
		}
	}
	return Role{}, ErrNotFound
}

func (m *mockRepo) InsertRole(ctx context.Context, role Role) (Role, error) {
	m.nextID++
	role.ID = m.nextID
	m.roles = append(m.roles, role)
	return role, nil
}

func (m *mockRepo) ListActiveRolesForCustomer(ctx context.Context, customerID int64) ([]Role, error) {
	m.listForCalls++
	var out []Role
	for _, id := range m.memberships[customerID] {
		r, err := m.GetRoleByID(ctx, id)
		if err == nil && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, cache.NewCache(cache.NewMemoryStore(64, 0), nil))
}

func TestEnsureRoleCreatesMissingRole(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	role, err := svc.EnsureRole(ctx, shared.RoleAdministrators, false)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdministrators, role.SystemName)
	assert.True(t, role.Active)
	assert.False(t, role.IsSystemRole)

	again, err := svc.EnsureRole(ctx, shared.RoleAdministrators, false)
	require.NoError(t, err)
	assert.Equal(t, role.ID, again.ID)
	assert.Len(t, repo.roles, 1)
}

func TestEnsureRoleMatchesSystemNameExactly(t *testing.T) {
	repo := newMockRepo(Role{ID: 1, Name: "Administrators", SystemName: "Administrators", Active: true})
	svc := newTestService(repo)

	role, err := svc.EnsureRole(context.Background(), "administrators", false)
	require.NoError(t, err)
	assert.NotEqual(t, int64(1), role.ID)
	assert.Len(t, repo.roles, 2)
}

func TestRoleBySystemNameRefreshesAfterInvalidate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	missing, err := svc.RoleBySystemName(ctx, shared.RoleVendors)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := svc.EnsureRole(ctx, shared.RoleVendors, true)
	require.NoError(t, err)

	stale, err := svc.RoleBySystemName(ctx, shared.RoleVendors)
	require.NoError(t, err)
	assert.Nil(t, stale, "ensure must not touch the cache before the caller commits")

	require.NoError(t, svc.InvalidateSystemNames(ctx, shared.RoleVendors))

	found, err := svc.RoleBySystemName(ctx, shared.RoleVendors)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.IsSystemRole)
}

func TestRolesForPrincipal(t *testing.T) {
	repo := newMockRepo(
		Role{ID: 1, SystemName: shared.RoleAdministrators, Active: true},
		Role{ID: 2, SystemName: shared.RoleRegistered, Active: true},
		Role{ID: 3, SystemName: shared.RoleGuests, Active: true},
		Role{ID: 4, SystemName: "Disabled", Active: false},
	)
	repo.memberships[42] = []int64{1, 2, 4}
	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.RolesForPrincipal(ctx, shared.CustomerID(42))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	_, err = svc.RolesForPrincipal(ctx, shared.CustomerID(42))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listForCalls, "memberships should be cached")

	guest, err := svc.RolesForPrincipal(ctx, shared.Guest)
	require.NoError(t, err)
	require.Len(t, guest, 1)
	assert.Equal(t, shared.RoleGuests, guest[0].SystemName)

	none, err := svc.RolesForPrincipal(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInvalidateCustomerReloadsMemberships(t *testing.T) {
	repo := newMockRepo(Role{ID: 1, SystemName: shared.RoleRegistered, Active: true}, Role{ID: 2, SystemName: shared.RoleVendors, Active: true})
	repo.memberships[7] = []int64{1}
	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.RolesForPrincipal(ctx, shared.CustomerID(7))
	require.NoError(t, err)
	require.Len(t, got, 1)

	repo.memberships[7] = []int64{1, 2}
	require.NoError(t, svc.InvalidateCustomer(ctx, 7))

	got, err = svc.RolesForPrincipal(ctx, shared.CustomerID(7))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
