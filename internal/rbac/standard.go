package rbac

import "github.com/odyssey-commerce/storefront/internal/shared"

func init() {
	RegisterCapabilityProvider(standardCapabilities()...)
}

func standardCapabilities() []CapabilityDeclaration {
	admins := []string{shared.RoleAdministrators}
	everyone := []string{shared.RoleAdministrators, shared.RoleForumModerators, shared.RoleGuests, shared.RoleRegistered, shared.RoleVendors}
	return []CapabilityDeclaration{
		{Name: "Access admin area", SystemName: shared.PermAccessAdminPanel, Category: shared.CategorySecurity, DefaultRoles: []string{shared.RoleAdministrators, shared.RoleVendors}},
		{Name: "Admin area. Manage ACL", SystemName: shared.PermManageACL, Category: shared.CategoryConfiguration, DefaultRoles: admins},
		{Name: "Admin area. Manage Plugins", SystemName: shared.PermManagePlugins, Category: shared.CategoryConfiguration, DefaultRoles: admins},
		{Name: "Admin area. Customers. View", SystemName: shared.PermCustomersView, Category: shared.CategoryCustomers, DefaultRoles: admins},
		{Name: "Admin area. Customers. Create, edit, delete", SystemName: shared.PermCustomersManage, Category: shared.CategoryCustomers, DefaultRoles: admins},
		{Name: "Admin area. Products. View", SystemName: shared.PermProductsView, Category: shared.CategoryCatalog, DefaultRoles: []string{shared.RoleAdministrators, shared.RoleVendors}},
		{Name: "Admin area. Manage Products", SystemName: shared.PermProductsManage, Category: shared.CategoryCatalog, DefaultRoles: []string{shared.RoleAdministrators, shared.RoleVendors}},
		{Name: "Admin area. Discounts. View", SystemName: shared.PermDiscountsView, Category: shared.CategoryPromotions, DefaultRoles: admins},
		{Name: "Admin area. Discounts. Create, edit, delete", SystemName: shared.PermDiscountsManage, Category: shared.CategoryPromotions, DefaultRoles: admins},
		{Name: "Public store. Enable shopping cart", SystemName: shared.PermEnableShoppingCart, Category: shared.CategoryPublicStore, DefaultRoles: everyone},
		{Name: "Public store. Enable wishlist", SystemName: shared.PermEnableWishlist, Category: shared.CategoryPublicStore, DefaultRoles: everyone},
		{Name: "Public store. Display Prices", SystemName: shared.PermDisplayPrices, Category: shared.CategoryPublicStore, DefaultRoles: everyone},
	}
}
