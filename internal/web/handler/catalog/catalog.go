// Package catalog provides the read only views of the master data lists of the current location:
// suppliers, units and categories.
package catalog

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoBizAdmin/GoBizAdmin/internal/auth"
	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/navigation"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

const (
	// Path is the path prefix of the catalog lists.
	Path = handler.RootPath + "catalog"

	// TemplateName is the name of the catalog list template.
	TemplateName = "catalog/list"
)

var titles = map[domain.CatalogKind]string{ //nolint:gochecknoglobals
	domain.CatalogSuppliers:  "Suppliers",
	domain.CatalogUnits:      "Units",
	domain.CatalogCategories: "Categories",
}

// Resource returns the permission resource guarding kind.
func Resource(kind domain.CatalogKind) string {
	switch kind {
	case domain.CatalogSuppliers:
		return permission.ResourceSuppliers
	case domain.CatalogUnits:
		return permission.ResourceUnits
	case domain.CatalogCategories:
		return permission.ResourceCategories
	default:
		return ""
	}
}

// Service is the catalog handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	ws  *workspace.Workspace
}

// Handler is the catalog handler.
var Handler = Service{}

// Init initializes the catalog handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws

	app.Get(Path+"/:kind", s.requireView, s.List)

	return nil
}

// requireView checks view on the resource of the requested kind.
func (s *Service) requireView(c *fiber.Ctx) error {
	kind := domain.CatalogKind(c.Params("kind"))
	if !kind.Valid() {
		return handler.RenderError(c, fiber.StatusNotFound, "Unknown catalog.")
	}

	return auth.RequirePermission(s.ws, Resource(kind), permission.ActionView)(c)
}

// List renders a catalog. Inactive entries follow the show inactive preference.
func (s *Service) List(c *fiber.Ctx) error {
	kind := domain.CatalogKind(c.Params("kind"))

	items, err := s.ws.Catalog(c.UserContext(), kind)
	if err != nil {
		return handler.Fail(c, err)
	}

	prefs, err := s.ws.Preferences(c.UserContext())
	if err != nil {
		return handler.Fail(c, err)
	}

	title := titles[kind]
	nav := navigation.NewContext(title, "catalog", string(kind)).
		AddBreadcrumb("Home", handler.HomePath, false).
		AddBreadcrumb(title, Path+"/"+string(kind), true)

	return c.Render(TemplateName, fiber.Map{
		"Navigation":   nav,
		"Kind":         string(kind),
		"Items":        items,
		"ShowInactive": prefs.ShowInactive,
	}, handler.BaseLayout)
}
