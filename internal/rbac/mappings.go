package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-commerce/storefront/internal/roles"
)

// Grant gives the role the capability. Granting an existing pair, or a pair
// whose capability or role does not exist, is a no-op.
func (s *Service) Grant(ctx context.Context, capabilityID, roleID int64) error {
	capability, ok, err := s.pairExists(ctx, capabilityID, roleID)
	if err != nil || !ok {
		return err
	}
	inserted, err := s.grant(ctx, capabilityID, roleID)
	if err != nil {
		return err
	}
	if err := s.invalidateRoles(ctx, roleID); err != nil {
		return err
	}
	if inserted {
		s.audit(ctx, "acl.grant", capability.SystemName, map[string]any{"role_id": roleID})
	}
	return nil
}

// Revoke removes the capability from the role. Revoking an absent grant, or
// naming an unknown capability, is a no-op.
func (s *Service) Revoke(ctx context.Context, capabilityID, roleID int64) error {
	capability, err := s.store.GetCapabilityByID(ctx, capabilityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("rbac: get capability %d: %w", capabilityID, err)
	}
	removed, err := s.store.DeleteGrant(ctx, capabilityID, roleID)
	if err != nil {
		return fmt.Errorf("rbac: revoke %d from role %d: %w", capabilityID, roleID, err)
	}
	if err := s.invalidateRoles(ctx, roleID); err != nil {
		return err
	}
	if removed {
		s.audit(ctx, "acl.revoke", capability.SystemName, map[string]any{"role_id": roleID})
	}
	return nil
}

// BulkGrant grants the named capabilities to the role. Names resolve
// case-insensitively; unknown names are skipped and returned, never an error.
// An unknown role is a no-op.
func (s *Service) BulkGrant(ctx context.Context, roleID int64, systemNames []string) ([]string, error) {
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("rbac: get role %d: %w", roleID, err)
	}
	capabilities, err := s.store.ListCapabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("rbac: list capabilities: %w", err)
	}
	var (
		skipped []string
		granted []string
	)
	for _, name := range systemNames {
		capability, ok := findCapability(capabilities, name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		inserted, err := s.grant(ctx, capability.ID, roleID)
		if err != nil {
			return skipped, err
		}
		if inserted {
			granted = append(granted, capability.SystemName)
		}
	}
	if err := s.invalidateRoles(ctx, roleID); err != nil {
		return skipped, err
	}
	for _, systemName := range granted {
		s.audit(ctx, "acl.bulk_grant", systemName, map[string]any{"role_id": roleID})
	}
	return skipped, nil
}

// SetCapabilityRoles makes roleIDs the exact set of roles holding the
// capability. An unknown capability is a no-op.
func (s *Service) SetCapabilityRoles(ctx context.Context, capabilityID int64, roleIDs []int64) error {
	capability, err := s.store.GetCapabilityByID(ctx, capabilityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("rbac: get capability %d: %w", capabilityID, err)
	}
	want := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		want[id] = struct{}{}
	}
	var touched []int64
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		grants, err := s.store.GrantsForCapability(ctx, capabilityID)
		if err != nil {
			return fmt.Errorf("rbac: grants for capability %d: %w", capabilityID, err)
		}
		have := make(map[int64]struct{}, len(grants))
		for _, g := range grants {
			have[g.RoleID] = struct{}{}
			if _, keep := want[g.RoleID]; keep {
				continue
			}
			if _, err := s.store.DeleteGrant(ctx, capabilityID, g.RoleID); err != nil {
				return fmt.Errorf("rbac: revoke %d from role %d: %w", capabilityID, g.RoleID, err)
			}
			touched = append(touched, g.RoleID)
		}
		for _, id := range roleIDs {
			if _, ok := have[id]; ok {
				continue
			}
			if _, err := s.roles.GetRole(ctx, id); err != nil {
				if errors.Is(err, roles.ErrNotFound) {
					continue
				}
				return err
			}
			if _, err := s.grant(ctx, capabilityID, id); err != nil {
				return err
			}
			have[id] = struct{}{}
			touched = append(touched, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.invalidateRoles(ctx, touched...); err != nil {
		return err
	}
	if len(touched) > 0 {
		s.audit(ctx, "acl.set_roles", capability.SystemName, map[string]any{"role_ids": roleIDs})
	}
	return nil
}

// grant inserts the pair unless it already exists, reporting whether a row was written.
func (s *Service) grant(ctx context.Context, capabilityID, roleID int64) (bool, error) {
	existing, err := s.store.FindGrant(ctx, capabilityID, roleID)
	if err != nil {
		return false, fmt.Errorf("rbac: find grant %d/%d: %w", capabilityID, roleID, err)
	}
	if existing != nil {
		return false, nil
	}
	if _, err := s.store.InsertGrant(ctx, Grant{CapabilityID: capabilityID, RoleID: roleID}); err != nil {
		return false, fmt.Errorf("rbac: insert grant %d/%d: %w", capabilityID, roleID, err)
	}
	return true, nil
}

// pairExists resolves the capability and checks the role, reporting false
// when either is missing.
func (s *Service) pairExists(ctx context.Context, capabilityID, roleID int64) (Capability, bool, error) {
	capability, err := s.store.GetCapabilityByID(ctx, capabilityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Capability{}, false, nil
		}
		return Capability{}, false, fmt.Errorf("rbac: get capability %d: %w", capabilityID, err)
	}
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return Capability{}, false, nil
		}
		return Capability{}, false, fmt.Errorf("rbac: get role %d: %w", roleID, err)
	}
	return capability, true, nil
}

func findCapability(capabilities []Capability, systemName string) (Capability, bool) {
	systemName = strings.TrimSpace(systemName)
	if systemName == "" {
		return Capability{}, false
	}
	for _, c := range capabilities {
		if strings.EqualFold(c.SystemName, systemName) {
			return c, true
		}
	}
	return Capability{}, false
}
