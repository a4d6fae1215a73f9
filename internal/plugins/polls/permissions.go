// Package polls is the storefront polls plugin. Importing it registers the
// plugin's capabilities with the authorization catalog.
package polls

import (
	"github.com/odyssey-commerce/storefront/internal/rbac"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// Capabilities owned by the polls plugin.
const (
	PermView   = "Polls.View"
	PermManage = "Polls.Manage"

	Category = "ContentManagement"
)

func init() {
	rbac.RegisterCapabilityProvider(Capabilities()...)
}

// Capabilities returns the declarations installed for the plugin.
func Capabilities() []rbac.CapabilityDeclaration {
	return []rbac.CapabilityDeclaration{
		{
			Name:         "Public store. View polls",
			SystemName:   PermView,
			Category:     Category,
			DefaultRoles: []string{shared.RoleAdministrators, shared.RoleRegistered, shared.RoleGuests},
		},
		{
			Name:         "Admin area. Manage polls",
			SystemName:   PermManage,
			Category:     Category,
			DefaultRoles: []string{shared.RoleAdministrators},
		},
	}
}
