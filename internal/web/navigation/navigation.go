// Package navigation provides utilities for managing navigation state, breadcrumbs and the
// permission gated side menu.
package navigation

import (
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// MenuItem is a side menu link.
type MenuItem struct {
	Title   string
	URL     string
	Section string

	// The item is shown when view on Resource is granted. Empty means always shown.
	Resource string
	// Requires lists further checks the target page enforces.
	Requires []permission.Check
}

// Items is the full side menu in display order.
var Items = []MenuItem{ //nolint:gochecknoglobals
	{Title: "Dashboard", URL: "/dashboard", Section: "dashboard"},
	{Title: "Locations", URL: "/locations", Section: "locations"},
	{
		Title: "Permissions", URL: "/permissions", Section: "permissions", Resource: permission.ResourcePermissions,
		Requires: []permission.Check{{Resource: permission.ResourceEmployees, Action: permission.ActionView}},
	},
	{Title: "Suppliers", URL: "/catalog/suppliers", Section: "catalog", Resource: permission.ResourceSuppliers},
	{Title: "Units", URL: "/catalog/units", Section: "catalog", Resource: permission.ResourceUnits},
	{Title: "Categories", URL: "/catalog/categories", Section: "catalog", Resource: permission.ResourceCategories},
}

// Menu returns the items set grants view on.
func Menu(set *permission.Set) []MenuItem {
	out := make([]MenuItem, 0, len(Items))

	for _, item := range Items {
		if item.Resource != "" && !permission.Has(set, item.Resource, permission.ActionView) {
			continue
		}

		if permission.HasAll(set, item.Requires...) {
			out = append(out, item)
		}
	}

	return out
}
