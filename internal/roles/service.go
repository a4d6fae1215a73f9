package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-commerce/storefront/internal/platform/cache"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

const (
	cachePrefix           = "roles:"
	keyRoleBySystemName   = cachePrefix + "bysystemname:%s"
	keyRolesForCustomer   = cachePrefix + "customer:%d"
	keyRolesCustomerScope = cachePrefix + "customer:"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, showHidden bool) ([]Role, error)
	GetRoleByID(ctx context.Context, id int64) (Role, error)
	GetRoleBySystemName(ctx context.Context, systemName string) (Role, error)
	InsertRole(ctx context.Context, role Role) (Role, error)
	ListActiveRolesForCustomer(ctx context.Context, customerID int64) ([]Role, error)
}

// Service is the role directory: lookups by id, system name and principal.
type Service struct {
	repo  RepositoryPort
	cache *cache.Cache
}

// NewService builds Service instance. A nil cache disables caching.
func NewService(repo RepositoryPort, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context, showHidden bool) ([]Role, error) {
	return s.repo.ListRoles(ctx, showHidden)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRoleByID(ctx, id)
}

// RoleBySystemName returns the role with the exact system name, or nil.
func (s *Service) RoleBySystemName(ctx context.Context, systemName string) (*Role, error) {
	if strings.TrimSpace(systemName) == "" {
		return nil, nil
	}
	return cache.Fetch(ctx, s.cache, fmt.Sprintf(keyRoleBySystemName, systemName), func(ctx context.Context) (*Role, error) {
		return s.lookupBySystemName(ctx, systemName)
	})
}

// EnsureRole resolves a role by exact system name, creating an active role
// when none exists. Lookups bypass the cache so callers running inside a
// transaction observe their own writes. The by-name cache is left alone;
// callers drop it with InvalidateSystemNames once their transaction commits.
func (s *Service) EnsureRole(ctx context.Context, systemName string, systemRole bool) (Role, error) {
	if strings.TrimSpace(systemName) == "" {
		return Role{}, errors.New("roles: system name required")
	}
	existing, err := s.lookupBySystemName(ctx, systemName)
	if err != nil {
		return Role{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	created, err := s.repo.InsertRole(ctx, Role{
		Name:         systemName,
		SystemName:   systemName,
		IsSystemRole: systemRole,
		Active:       true,
	})
	if err != nil {
		return Role{}, fmt.Errorf("roles: insert %s: %w", systemName, err)
	}
	return created, nil
}

// InvalidateSystemNames drops cached by-name lookups for the given roles.
func (s *Service) InvalidateSystemNames(ctx context.Context, systemNames ...string) error {
	for _, name := range systemNames {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf(keyRoleBySystemName, name)); err != nil {
			return err
		}
	}
	return nil
}

// RolesForPrincipal returns the active roles of the principal in id order.
// Anonymous principals resolve to the Guests role.
func (s *Service) RolesForPrincipal(ctx context.Context, principal shared.Principal) ([]Role, error) {
	if principal == nil {
		return nil, nil
	}
	id := principal.GetID()
	if id <= 0 {
		guests, err := s.RoleBySystemName(ctx, shared.RoleGuests)
		if err != nil || guests == nil || !guests.Active {
			return nil, err
		}
		return []Role{*guests}, nil
	}
	return cache.Fetch(ctx, s.cache, fmt.Sprintf(keyRolesForCustomer, id), func(ctx context.Context) ([]Role, error) {
		return s.repo.ListActiveRolesForCustomer(ctx, id)
	})
}

// InvalidateCustomer drops cached role memberships for a customer, or for all
// customers when customerID is zero.
func (s *Service) InvalidateCustomer(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return s.cache.InvalidatePrefix(ctx, keyRolesCustomerScope)
	}
	return s.cache.Invalidate(ctx, fmt.Sprintf(keyRolesForCustomer, customerID))
}

func (s *Service) lookupBySystemName(ctx context.Context, systemName string) (*Role, error) {
	role, err := s.repo.GetRoleBySystemName(ctx, systemName)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}
