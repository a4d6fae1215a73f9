package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ListCapabilities returns every installed capability ordered by name.
func (s *Service) ListCapabilities(ctx context.Context) ([]Capability, error) {
	return s.store.ListCapabilities(ctx)
}

// Categories returns the distinct capability categories in alphabetical order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	capabilities, err := s.store.ListCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, c := range capabilities {
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		categories = append(categories, c.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// CapabilitiesByCategory returns the capabilities of one category.
func (s *Service) CapabilitiesByCategory(ctx context.Context, category string) ([]Capability, error) {
	capabilities, err := s.store.ListCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]Capability, 0)
	for _, c := range capabilities {
		if c.Category == category {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// GetCapability fetches a capability by id.
func (s *Service) GetCapability(ctx context.Context, id int64) (Capability, error) {
	return s.store.GetCapabilityByID(ctx, id)
}

// CapabilityBySystemName fetches a capability by its exact system name.
func (s *Service) CapabilityBySystemName(ctx context.Context, systemName string) (Capability, error) {
	systemName = strings.TrimSpace(systemName)
	if systemName == "" {
		return Capability{}, ErrNotFound
	}
	return s.store.GetCapabilityBySystemName(ctx, systemName)
}

// RolesForCapability returns the ids of the roles holding the capability.
func (s *Service) RolesForCapability(ctx context.Context, capabilityID int64) ([]int64, error) {
	grants, err := s.store.GrantsForCapability(ctx, capabilityID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.RoleID)
	}
	return ids, nil
}

// UpdateCapability changes the display name and category of a capability.
func (s *Service) UpdateCapability(ctx context.Context, c Capability) error {
	current, err := s.store.GetCapabilityByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.SystemName != "" && c.SystemName != current.SystemName {
		return ErrImmutableSystemName
	}
	c.SystemName = current.SystemName
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.New("rbac: capability name required")
	}
	if err := s.store.UpdateCapability(ctx, c); err != nil {
		return fmt.Errorf("rbac: update capability %d: %w", c.ID, err)
	}
	// cached capability lists carry display names
	if err := s.FlushCache(ctx); err != nil {
		return err
	}
	s.audit(ctx, "acl.update", c.SystemName, map[string]any{
		"name":         c.Name,
		"category":     c.Category,
		"old_name":     current.Name,
		"old_category": current.Category,
	})
	return nil
}

// DeleteCapability removes the capability with the exact system name along
// with its grants and localized display names. Unknown names are a no-op.
func (s *Service) DeleteCapability(ctx context.Context, systemName string) error {
	systemName = strings.TrimSpace(systemName)
	if systemName == "" {
		return nil
	}
	capability, err := s.store.GetCapabilityBySystemName(ctx, systemName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("rbac: get capability %s: %w", systemName, err)
	}

	var holders []int64
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		grants, err := s.store.GrantsForCapability(ctx, capability.ID)
		if err != nil {
			return fmt.Errorf("rbac: grants for capability %d: %w", capability.ID, err)
		}
		for _, g := range grants {
			holders = append(holders, g.RoleID)
		}
		if err := s.store.DeleteGrantsForCapability(ctx, capability.ID); err != nil {
			return fmt.Errorf("rbac: delete grants for capability %d: %w", capability.ID, err)
		}
		if s.localizer != nil {
			languages, err := s.localizer.Languages(ctx)
			if err != nil {
				return fmt.Errorf("rbac: languages: %w", err)
			}
			if err := s.localizer.DeleteLocalizedDisplayName(ctx, capability.SystemName, languages); err != nil {
				return err
			}
		}
		if err := s.store.DeleteCapability(ctx, capability.ID); err != nil {
			return fmt.Errorf("rbac: delete capability %d: %w", capability.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.invalidateRoles(ctx, holders...); err != nil {
		return err
	}
	s.audit(ctx, "acl.delete", capability.SystemName, map[string]any{"role_ids": holders})
	return nil
}
