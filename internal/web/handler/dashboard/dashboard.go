// Package dashboard provides the landing page: the current location and what the operator may
// do there.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/location"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/navigation"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.HomePath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"
)

// Data represents the complete dashboard data.
type Data struct {
	Identity      *domain.Identity
	Location      *domain.Location
	LocationState location.State
	LocationCount int
	LocationError string
	Grid          []permission.Row
	GrantedCount  int
	PermissionErr string
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	ws  *workspace.Workspace
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws

	app.Get(Path, s.Get)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true)

	view := s.ws.Locations()

	data := Data{
		Identity:      s.ws.Identity(),
		Location:      view.Current,
		LocationState: view.State,
		LocationCount: len(view.Locations),
	}

	if view.Err != nil {
		data.LocationError = view.Err.Error()
	}

	set, err := s.ws.Permissions(c.UserContext())
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return handler.Fail(c, err)
		}

		log.Warn().Err(err).Msg("dashboard permissions unavailable")

		data.PermissionErr = err.Error()
	}

	data.Grid = permission.Grid(set)
	data.GrantedCount = permission.Granted(set)

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Data":       data,
	}, handler.BaseLayout)
}
