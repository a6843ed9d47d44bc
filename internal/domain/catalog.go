package domain

// CatalogKind names a master data list of a location.
type CatalogKind string

const (
	// CatalogSuppliers lists suppliers.
	CatalogSuppliers CatalogKind = "suppliers"
	// CatalogUnits lists measurement units.
	CatalogUnits CatalogKind = "units"
	// CatalogCategories lists expense categories.
	CatalogCategories CatalogKind = "categories"
)

// Valid reports whether k is a known catalog.
func (k CatalogKind) Valid() bool {
	switch k {
	case CatalogSuppliers, CatalogUnits, CatalogCategories:
		return true
	default:
		return false
	}
}

// CatalogItem is a single supplier, unit or category entry.
type CatalogItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// Preferences are user interface flags kept in local storage.
type Preferences struct {
	ShowInactive bool `json:"show_inactive"`
}

// FilterActive drops inactive items unless showInactive is set.
func FilterActive(items []CatalogItem, showInactive bool) []CatalogItem {
	if showInactive {
		return items
	}

	out := make([]CatalogItem, 0, len(items))
	for _, item := range items {
		if item.Active {
			out = append(out, item)
		}
	}

	return out
}
