package rbac

import (
	"context"

	"github.com/odyssey-commerce/storefront/internal/localization"
	"github.com/odyssey-commerce/storefront/internal/roles"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// Store persists capabilities and grants.
type Store interface {
	ListCapabilities(ctx context.Context) ([]Capability, error)
	ListCapabilitySystemNames(ctx context.Context) ([]string, error)
	GetCapabilityByID(ctx context.Context, id int64) (Capability, error)
	GetCapabilityBySystemName(ctx context.Context, systemName string) (Capability, error)
	InsertCapability(ctx context.Context, c Capability) (Capability, error)
	UpdateCapability(ctx context.Context, c Capability) error
	DeleteCapability(ctx context.Context, id int64) error
	CapabilitiesForRole(ctx context.Context, roleID int64) ([]Capability, error)
	GrantsForCapability(ctx context.Context, capabilityID int64) ([]Grant, error)
	FindGrant(ctx context.Context, capabilityID, roleID int64) (*Grant, error)
	InsertGrant(ctx context.Context, g Grant) (Grant, error)
	DeleteGrant(ctx context.Context, capabilityID, roleID int64) (bool, error)
	DeleteGrantsForCapability(ctx context.Context, capabilityID int64) error
}

// RoleDirectory resolves roles.
type RoleDirectory interface {
	GetRole(ctx context.Context, id int64) (roles.Role, error)
	RolesForPrincipal(ctx context.Context, principal shared.Principal) ([]roles.Role, error)
	EnsureRole(ctx context.Context, systemName string, systemRole bool) (roles.Role, error)
	InvalidateSystemNames(ctx context.Context, systemNames ...string) error
}

// Localizer stores capability display names per language.
type Localizer interface {
	Languages(ctx context.Context) ([]localization.Language, error)
	SaveLocalizedDisplayName(ctx context.Context, systemName, displayName string, languages []localization.Language) error
	DeleteLocalizedDisplayName(ctx context.Context, systemName string, languages []localization.Language) error
}

// Transactor runs fn atomically.
type Transactor interface {
	InTx(ctx context.Context, fn func(context.Context) error) error
}

// Auditor records administrative changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	RecordDecision(capability string, granted bool)
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
