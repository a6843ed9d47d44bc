// Package locations provides the handlers for listing, switching and editing the business
// locations of the operator.
package locations

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/auth"
	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/location"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/navigation"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

const (
	// Path is the path of the location list.
	Path = handler.RootPath + "locations"

	// TemplateList is the name of the list template.
	TemplateList = "locations/list"

	// TemplateForm is the name of the create/edit template.
	TemplateForm = "locations/form"
)

// ErrInvalidID is returned for a malformed location id.
var ErrInvalidID = errors.New("invalid location id")

// FormData is the data of the create/edit template.
type FormData struct {
	ID     int64
	Input  domain.LocationInput
	Action string
	IsNew  bool
}

// Service is the locations handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	ws       *workspace.Workspace
	validate *validator.Validate
}

// Handler is the locations handler.
var Handler = Service{}

// Init initializes the locations handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws
	s.validate = validator.New()

	canEdit := auth.RequirePermission(ws, permission.ResourceBusinesses, permission.ActionEdit)
	canDelete := auth.RequirePermission(ws, permission.ResourceBusinesses, permission.ActionDelete)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.List)
		router.Post("/refresh", s.Refresh)
		router.Get("/new", s.requireCreate, s.New)
		router.Post(handler.RouterRootPath, s.requireCreate, s.Create)
		router.Get("/:id/edit", canEdit, s.Edit)
		router.Post("/:id/delete", canDelete, s.Delete)
		router.Post("/:id/switch", s.Switch)
		router.Post("/:id", canEdit, s.Update)
	})

	return nil
}

// requireCreate lets owners and administrators create locations even before they have one,
// everyone else needs create on businesses at the current location.
func (s *Service) requireCreate(c *fiber.Ctx) error {
	if identity := s.ws.Identity(); identity != nil &&
		(identity.Role == domain.RoleOwner || identity.Role == domain.RoleAdmin) {
		return c.Next()
	}

	return auth.RequirePermission(s.ws, permission.ResourceBusinesses, permission.ActionCreate)(c)
}

// List renders the authorized locations.
func (s *Service) List(c *fiber.Ctx) error {
	nav := navigation.NewContext("Locations", "locations", "list").
		AddBreadcrumb("Home", handler.HomePath, false).
		AddBreadcrumb("Locations", Path, true)

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"View":       s.ws.Locations(),
	}, handler.BaseLayout)
}

// Refresh reloads the location list from the platform.
func (s *Service) Refresh(c *fiber.Ctx) error {
	if err := s.ws.RefreshLocations(c.UserContext()); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return handler.Fail(c, err)
		}

		s.flash(c, session.FlashError, "Could not reload the locations: "+err.Error())

		return c.Redirect(Path)
	}

	s.flash(c, session.FlashSuccess, "Locations reloaded.")

	return c.Redirect(Path)
}

// Switch makes a loaded location current.
func (s *Service) Switch(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, err.Error())
	}

	if err = s.ws.SwitchLocation(c.UserContext(), id); err != nil {
		return handler.Fail(c, err)
	}

	if current := s.ws.CurrentLocation(); current != nil {
		s.flash(c, session.FlashSuccess, "Switched to "+current.Name+".")
	}

	return c.Redirect(handler.HomePath)
}

// New renders an empty location form.
func (s *Service) New(c *fiber.Ctx) error {
	return s.renderForm(c, FormData{Input: domain.LocationInput{Active: true}, Action: Path, IsNew: true}, "")
}

// Create creates a location from the submitted form.
func (s *Service) Create(c *fiber.Ctx) error {
	data := FormData{Action: Path, IsNew: true}

	if msg := s.parseInput(c, &data.Input); msg != "" {
		return s.renderForm(c, data, msg)
	}

	loc, err := s.ws.CreateLocation(c.UserContext(), data.Input)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return handler.Fail(c, err)
		}

		if errors.Is(err, location.ErrReload) {
			return s.reloadFailed(c, "Location "+loc.Name+" created", err)
		}

		log.Error().Err(err).Msg("failed to create location")

		return s.renderForm(c, data, "Could not create the location: "+err.Error())
	}

	s.flash(c, session.FlashSuccess, "Location "+loc.Name+" created.")

	return c.Redirect(Path)
}

// Edit renders the form of a loaded location.
func (s *Service) Edit(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, err.Error())
	}

	view := s.ws.Locations()

	i := domain.IndexOf(view.Locations, id)
	if i < 0 {
		return handler.Fail(c, domain.ErrNotFound)
	}

	loc := view.Locations[i]

	return s.renderForm(c, FormData{
		ID:     id,
		Action: Path + "/" + strconv.FormatInt(id, 10),
		Input: domain.LocationInput{
			Name:    loc.Name,
			Address: loc.Address,
			City:    loc.City,
			Active:  loc.Active,
		},
	}, "")
}

// Update edits a location from the submitted form.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, err.Error())
	}

	data := FormData{ID: id, Action: Path + "/" + strconv.FormatInt(id, 10)}

	if msg := s.parseInput(c, &data.Input); msg != "" {
		return s.renderForm(c, data, msg)
	}

	loc, err := s.ws.UpdateLocation(c.UserContext(), id, data.Input)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotFound) {
			return handler.Fail(c, err)
		}

		if errors.Is(err, location.ErrReload) {
			return s.reloadFailed(c, "Location "+loc.Name+" saved", err)
		}

		log.Error().Err(err).Int64("location_id", id).Msg("failed to update location")

		return s.renderForm(c, data, "Could not save the location: "+err.Error())
	}

	s.flash(c, session.FlashSuccess, "Location "+loc.Name+" saved.")

	return c.Redirect(Path)
}

// Delete deletes a location.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, err.Error())
	}

	if err = s.ws.DeleteLocation(c.UserContext(), id); err != nil {
		if errors.Is(err, location.ErrReload) && !errors.Is(err, domain.ErrUnauthorized) {
			return s.reloadFailed(c, "Location deleted", err)
		}

		return handler.Fail(c, err)
	}

	s.flash(c, session.FlashSuccess, "Location deleted.")

	return c.Redirect(Path)
}

// parseInput binds and validates the form. It returns a message for the operator on failure.
func (s *Service) parseInput(c *fiber.Ctx, in *domain.LocationInput) string {
	if err := c.BodyParser(in); err != nil {
		return "Invalid form data"
	}

	if err := s.validate.Struct(in); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			e := validationErrors[0]
			return "Field '" + e.Field() + "' failed validation tag '" + e.Tag() + "'"
		}

		return err.Error()
	}

	return ""
}

func (s *Service) renderForm(c *fiber.Ctx, data FormData, errMsg string) error {
	title := "Edit location"
	page := "edit"

	if data.IsNew {
		title = "New location"
		page = "new"
	}

	nav := navigation.NewContext(title, "locations", page).
		AddBreadcrumb("Home", handler.HomePath, false).
		AddBreadcrumb("Locations", Path, false).
		AddBreadcrumb(title, data.Action, true)

	bind := fiber.Map{
		"Navigation": nav,
		"Form":       data,
	}

	if errMsg != "" {
		bind["error"] = errMsg
	}

	return c.Render(TemplateForm, bind, handler.BaseLayout)
}

func (s *Service) flash(c *fiber.Ctx, kind, message string) {
	if err := session.SetFlash(c, kind, message); err != nil {
		log.Warn().Err(err).Msg("failed to store flash message")
	}
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// reloadFailed reports a mutation the platform applied while the list could not be fetched
// afterwards. The operator lands on the list, never back on the submitted form.
func (s *Service) reloadFailed(c *fiber.Ctx, done string, err error) error {
	log.Warn().Err(err).Msg("location list reload after mutation failed")
	s.flash(c, session.FlashError, done+", but the list could not be reloaded.")

	return c.Redirect(Path)
}
