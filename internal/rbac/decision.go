package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-commerce/storefront/internal/platform/cache"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// IsGranted reports whether the role holds the capability. Capability names
// compare case-insensitively; an empty name is never granted.
func (s *Service) IsGranted(ctx context.Context, systemName string, roleID int64) (bool, error) {
	systemName = strings.TrimSpace(systemName)
	if systemName == "" {
		return false, nil
	}
	return cache.Fetch(ctx, s.cache, allowedKey(systemName, roleID), func(ctx context.Context) (bool, error) {
		capabilities, err := s.capabilitiesForRole(ctx, roleID)
		if err != nil {
			return false, err
		}
		for _, c := range capabilities {
			if strings.EqualFold(c.SystemName, systemName) {
				return true, nil
			}
		}
		return false, nil
	})
}

// IsGrantedFor reports whether any role of the principal holds the capability.
// Roles are evaluated in resolver order and the first grant wins.
func (s *Service) IsGrantedFor(ctx context.Context, systemName string, principal shared.Principal) (bool, error) {
	if strings.TrimSpace(systemName) == "" || principal == nil {
		return false, nil
	}
	principalRoles, err := s.roles.RolesForPrincipal(ctx, principal)
	if err != nil {
		return false, fmt.Errorf("rbac: roles for principal %d: %w", principal.GetID(), err)
	}
	for _, role := range principalRoles {
		if !role.Active {
			continue
		}
		granted, err := s.IsGranted(ctx, systemName, role.ID)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	}
	return false, nil
}

// Authorize is IsGrantedFor plus decision metrics and logging, for use at
// request boundaries.
func (s *Service) Authorize(ctx context.Context, systemName string, principal shared.Principal) (bool, error) {
	granted, err := s.IsGrantedFor(ctx, systemName, principal)
	if err != nil {
		return false, err
	}
	if s.recorder != nil {
		s.recorder.RecordDecision(systemName, granted)
	}
	if !granted {
		var id int64
		if principal != nil {
			id = principal.GetID()
		}
		s.logger.DebugContext(ctx, "rbac access denied", slog.String("capability", systemName), slog.Int64("customer_id", id))
	}
	return granted, nil
}

func (s *Service) capabilitiesForRole(ctx context.Context, roleID int64) ([]Capability, error) {
	return cache.Fetch(ctx, s.cache, capabilitiesKey(roleID), func(ctx context.Context) ([]Capability, error) {
		capabilities, err := s.store.CapabilitiesForRole(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("rbac: capabilities for role %d: %w", roleID, err)
		}
		return capabilities, nil
	})
}
