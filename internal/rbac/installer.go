package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-commerce/storefront/internal/localization"
	"github.com/odyssey-commerce/storefront/internal/platform/db"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

const maxInstallAttempts = 3

type reconcileConfig struct {
	systemRoles map[string]struct{}
}

// ReconcileOption tunes a Reconcile call.
type ReconcileOption func(*reconcileConfig)

// WithSystemRoles marks default roles with these exact system names as
// built-in when Reconcile has to create them.
func WithSystemRoles(systemNames ...string) ReconcileOption {
	return func(c *reconcileConfig) {
		for _, name := range systemNames {
			c.systemRoles[name] = struct{}{}
		}
	}
}

// Reconcile installs every declared capability that is not installed yet,
// together with its default grants and localized display name. It returns
// the capabilities installed by this call. Each declaration is installed in
// its own transaction; on failure the ones already committed stay installed
// and a later call picks up the rest.
func (s *Service) Reconcile(ctx context.Context, decls []CapabilityDeclaration, opts ...ReconcileOption) ([]Capability, error) {
	cfg := reconcileConfig{systemRoles: make(map[string]struct{})}
	for _, opt := range opts {
		opt(&cfg)
	}

	installed, err := s.store.ListCapabilitySystemNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("rbac: list installed capabilities: %w", err)
	}
	seen := make(map[string]struct{}, len(installed)+len(decls))
	for _, name := range installed {
		seen[name] = struct{}{}
	}

	var languages []localization.Language
	if s.localizer != nil {
		languages, err = s.localizer.Languages(ctx)
		if err != nil {
			return nil, fmt.Errorf("rbac: languages: %w", err)
		}
	}

	created := make([]Capability, 0)
	for _, decl := range decls {
		decl.SystemName = strings.TrimSpace(decl.SystemName)
		if decl.SystemName == "" {
			continue
		}
		if _, ok := seen[decl.SystemName]; ok {
			continue
		}
		seen[decl.SystemName] = struct{}{}

		capability, granted, err := s.installWithRetry(ctx, decl, languages, cfg)
		if err != nil {
			return created, err
		}
		if err := s.roles.InvalidateSystemNames(ctx, decl.DefaultRoles...); err != nil {
			return created, err
		}
		if err := s.invalidateRoles(ctx, granted...); err != nil {
			return created, err
		}
		created = append(created, capability)
		s.logger.InfoContext(ctx, "rbac capability installed",
			slog.String("capability", capability.SystemName),
			slog.Int("default_roles", len(granted)))
	}
	return created, nil
}

// ReconcileRegistered reconciles every declaration in the service registry
// followed by the manifests in the configured manifest directory. Roles
// created for the built-in role names are marked as system roles.
func (s *Service) ReconcileRegistered(ctx context.Context) ([]Capability, error) {
	decls := s.registry.Declarations()
	if s.manifestDir != "" {
		loaded, err := LoadManifestDir(s.manifestDir)
		if err != nil {
			return nil, err
		}
		for _, d := range loaded {
			if err := s.registry.validate.Struct(d); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDeclaration, d.SystemName, err)
			}
		}
		decls = append(decls, loaded...)
	}
	return s.Reconcile(ctx, decls, WithSystemRoles(shared.BuiltinRoles()...))
}

// installWithRetry reruns install when a concurrent installer aborted its
// transaction with a serialization failure.
func (s *Service) installWithRetry(ctx context.Context, decl CapabilityDeclaration, languages []localization.Language, cfg reconcileConfig) (Capability, []int64, error) {
	for attempt := 1; ; attempt++ {
		capability, granted, err := s.install(ctx, decl, languages, cfg)
		if err == nil || !db.IsSerializationFailure(err) || attempt == maxInstallAttempts {
			return capability, granted, err
		}
		s.logger.WarnContext(ctx, "rbac capability install conflicted, retrying",
			slog.String("capability", decl.SystemName),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		if err := ctx.Err(); err != nil {
			return Capability{}, nil, err
		}
	}
}

func (s *Service) install(ctx context.Context, decl CapabilityDeclaration, languages []localization.Language, cfg reconcileConfig) (Capability, []int64, error) {
	var (
		capability Capability
		granted    []int64
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		capability, err = s.store.InsertCapability(ctx, Capability{
			Name:       decl.Name,
			SystemName: decl.SystemName,
			Category:   decl.Category,
		})
		if err != nil {
			return fmt.Errorf("rbac: insert capability %s: %w", decl.SystemName, err)
		}
		for _, roleName := range decl.DefaultRoles {
			_, systemRole := cfg.systemRoles[roleName]
			role, err := s.roles.EnsureRole(ctx, roleName, systemRole)
			if err != nil {
				return fmt.Errorf("rbac: default role %s: %w", roleName, err)
			}
			if _, err := s.grant(ctx, capability.ID, role.ID); err != nil {
				return err
			}
			granted = append(granted, role.ID)
		}
		if s.localizer != nil {
			if err := s.localizer.SaveLocalizedDisplayName(ctx, capability.SystemName, capability.Name, languages); err != nil {
				return fmt.Errorf("rbac: localize %s: %w", capability.SystemName, err)
			}
		}
		return nil
	})
	if err != nil {
		return Capability{}, nil, err
	}
	return capability, granted, nil
}
