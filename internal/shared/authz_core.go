package shared

// Well-known customer role system names.
const (
	RoleAdministrators  = "Administrators"
	RoleForumModerators = "ForumModerators"
	RoleRegistered      = "Registered"
	RoleGuests          = "Guests"
	RoleVendors         = "Vendors"
)

// Core platform capabilities.
const (
	PermAccessAdminPanel = "Security.AccessAdminPanel"
	PermManageACL        = "Configuration.ManageAcl"
	PermManagePlugins    = "Configuration.ManagePlugins"

	PermCustomersView   = "Customers.CustomersView"
	PermCustomersManage = "Customers.CustomersCreateEditDelete"

	PermProductsView   = "Catalog.ProductsView"
	PermProductsManage = "Catalog.ManageProducts"

	PermDiscountsView   = "Promotions.DiscountsView"
	PermDiscountsManage = "Promotions.DiscountsCreateEditDelete"

	PermEnableShoppingCart = "PublicStore.EnableShoppingCart"
	PermEnableWishlist     = "PublicStore.EnableWishlist"
	PermDisplayPrices      = "PublicStore.DisplayPrices"
)

// Capability categories used to group the admin permission matrix.
const (
	CategorySecurity      = "Security"
	CategoryConfiguration = "Configuration"
	CategoryCustomers     = "Customers"
	CategoryCatalog       = "Catalog"
	CategoryPromotions    = "Promotions"
	CategoryPublicStore   = "PublicStore"
)

// CoreScopes lists all capabilities related to the core platform.
func CoreScopes() []string {
	return []string{
		PermAccessAdminPanel,
		PermManageACL,
		PermManagePlugins,
		PermCustomersView,
		PermCustomersManage,
		PermProductsView,
		PermProductsManage,
		PermDiscountsView,
		PermDiscountsManage,
		PermEnableShoppingCart,
		PermEnableWishlist,
		PermDisplayPrices,
	}
}

// BuiltinRoles lists the role system names shipped with the platform.
func BuiltinRoles() []string {
	return []string{RoleAdministrators, RoleForumModerators, RoleRegistered, RoleGuests, RoleVendors}
}
