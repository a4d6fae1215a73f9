package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-commerce/storefront/internal/platform/cache"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// ServiceParams groups the collaborators of Service.
type ServiceParams struct {
	Store     Store
	Roles     RoleDirectory
	Localizer Localizer
	Tx        Transactor
	Cache     *cache.Cache
	Registry  *Registry
	Auditor   Auditor
	Recorder  DecisionRecorder
	Logger    *slog.Logger

	// ManifestDir holds YAML capability manifests read by ReconcileRegistered.
	ManifestDir string
}

// Service installs the capability catalog, answers authorization checks and
// maintains role grants, keeping the decision cache consistent with them.
type Service struct {
	store     Store
	roles     RoleDirectory
	localizer Localizer
	tx        Transactor
	cache     *cache.Cache
	registry  *Registry
	auditor   Auditor
	recorder  DecisionRecorder
	logger    *slog.Logger

	manifestDir string
}

// NewService constructs a Service. Store and Roles are required; a nil Cache
// disables caching and a nil Tx runs without transactions.
func NewService(p ServiceParams) *Service {
	s := &Service{
		store:     p.Store,
		roles:     p.Roles,
		localizer: p.Localizer,
		tx:        p.Tx,
		cache:     p.Cache,
		registry:  p.Registry,
		auditor:   p.Auditor,
		recorder:  p.Recorder,
		logger:    p.Logger,

		manifestDir: p.ManifestDir,
	}
	if s.tx == nil {
		s.tx = passthroughTx{}
	}
	if s.registry == nil {
		s.registry = DefaultRegistry
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// invalidateRoles drops every cached entry derived from the given roles.
func (s *Service) invalidateRoles(ctx context.Context, roleIDs ...int64) error {
	seen := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if err := s.cache.InvalidatePrefix(ctx, roleScope(id)); err != nil {
			return fmt.Errorf("rbac: invalidate role %d: %w", id, err)
		}
	}
	return nil
}

// FlushCache drops every cached authorization entry.
func (s *Service) FlushCache(ctx context.Context) error {
	return s.cache.InvalidatePrefix(ctx, CachePrefix)
}

func (s *Service) audit(ctx context.Context, action string, entityID string, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return
	}
	err := s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actor.GetID(),
		Action:   action,
		Entity:   "permission_record",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("rbac audit", slog.String("action", action), slog.Any("error", err))
	}
}
