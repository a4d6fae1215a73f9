package rbac

import "errors"

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrInvalidDeclaration is returned when a capability declaration fails validation.
	ErrInvalidDeclaration = errors.New("rbac: invalid capability declaration")
	// ErrImmutableSystemName is returned when an update tries to rename a capability.
	ErrImmutableSystemName = errors.New("rbac: capability system name is immutable")
)

// Capability is a named, installable unit of authorization.
type Capability struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SystemName string `json:"system_name"`
	Category   string `json:"category"`
}

// Grant ties a capability to a role.
type Grant struct {
	ID           int64 `json:"id"`
	CapabilityID int64 `json:"capability_id"`
	RoleID       int64 `json:"role_id"`
}

// CapabilityDeclaration states that a capability exists and which roles hold
// it by default. Declarations are consumed once by Reconcile.
type CapabilityDeclaration struct {
	Name         string   `yaml:"name" validate:"required,max=255"`
	SystemName   string   `yaml:"system_name" validate:"required,max=255"`
	Category     string   `yaml:"category" validate:"max=255"`
	DefaultRoles []string `yaml:"default_roles" validate:"dive,required,max=255"`
}

func (d CapabilityDeclaration) clone() CapabilityDeclaration {
	if d.DefaultRoles != nil {
		d.DefaultRoles = append([]string(nil), d.DefaultRoles...)
	}
	return d
}
