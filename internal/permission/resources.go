package permission

// Resources of the business platform.
const (
	ResourceExpenses    = "expenses"
	ResourceInvoices    = "invoices"
	ResourceSuppliers   = "suppliers"
	ResourceCategories  = "categories"
	ResourceUnits       = "units"
	ResourceEmployees   = "employees"
	ResourceBusinesses  = "businesses"
	ResourcePermissions = "permissions"
)

// Actions that can be performed on a resource.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Resources lists every resource in display order.
var Resources = []string{ //nolint:gochecknoglobals
	ResourceExpenses,
	ResourceInvoices,
	ResourceSuppliers,
	ResourceCategories,
	ResourceUnits,
	ResourceEmployees,
	ResourceBusinesses,
	ResourcePermissions,
}

// Actions lists every action in display order.
var Actions = []string{ActionView, ActionCreate, ActionEdit, ActionDelete} //nolint:gochecknoglobals
