// Package permissions provides the handlers for reviewing and changing the permissions of the
// members of the current location.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/auth"
	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/navigation"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

const (
	// Path is the path of the employee list.
	Path = handler.RootPath + "permissions"

	// TemplateList is the name of the employee list template.
	TemplateList = "permissions/list"

	// TemplateDetail is the name of the permission grid template.
	TemplateDetail = "permissions/detail"
)

// ErrInvalidID is returned for a malformed employee id.
var ErrInvalidID = errors.New("invalid employee id")

// ChangeForm is the submitted grant or revoke form.
type ChangeForm struct {
	Permissions []string `form:"permissions" validate:"required,min=1,dive,required,max=64,permission"`
}

// DetailData is the data of the permission grid template.
type DetailData struct {
	Employee domain.Employee
	Grid     []permission.Row
	CanEdit  bool
}

// Service is the permissions handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	ws       *workspace.Workspace
	validate *validator.Validate
}

// Handler is the permissions handler.
var Handler = Service{}

// Init initializes the permissions handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws
	s.validate = validator.New()

	if err := s.validate.RegisterValidation("permission", validPermissionName); err != nil {
		return err
	}

	viewPermissions := permission.Check{Resource: permission.ResourcePermissions, Action: permission.ActionView}
	editPermissions := permission.Check{Resource: permission.ResourcePermissions, Action: permission.ActionEdit}

	// the list shows the staff of the location, so it also needs view on employees
	canList := auth.RequireAllPermissions(ws, viewPermissions,
		permission.Check{Resource: permission.ResourceEmployees, Action: permission.ActionView})
	canView := auth.RequireAnyPermission(ws, viewPermissions, editPermissions)
	canEdit := auth.RequirePermission(ws, editPermissions.Resource, editPermissions.Action)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, canList, s.List)
		router.Get("/:id", canView, s.Detail)
		router.Post("/:id/grant", canEdit, s.Grant)
		router.Post("/:id/revoke", canEdit, s.Revoke)
	})

	return nil
}

// validPermissionName accepts names of the form action_resource for known pairs.
func validPermissionName(fl validator.FieldLevel) bool {
	action, resource, ok := strings.Cut(fl.Field().String(), "_")
	if !ok {
		return false
	}

	for _, r := range permission.Resources {
		if r != resource {
			continue
		}

		for _, a := range permission.Actions {
			if a == action {
				return true
			}
		}
	}

	return false
}

// List renders the members of the current location.
func (s *Service) List(c *fiber.Ctx) error {
	employees, err := s.ws.Employees(c.UserContext())
	if err != nil {
		return handler.Fail(c, err)
	}

	nav := navigation.NewContext("Permissions", "permissions", "list").
		AddBreadcrumb("Home", handler.HomePath, false).
		AddBreadcrumb("Permissions", Path, true)

	return c.Render(TemplateList, fiber.Map{
		"Navigation": nav,
		"Employees":  employees,
	}, handler.BaseLayout)
}

// Detail renders the permission grid of one member. The records are fetched directly and never
// cached.
func (s *Service) Detail(c *fiber.Ctx) error {
	employee, err := s.employee(c)
	if err != nil {
		return handler.Fail(c, err)
	}

	set, err := s.ws.PermissionsOf(c.UserContext(), employee.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	nav := navigation.NewContext(employee.Username, "permissions", "detail").
		AddBreadcrumb("Home", handler.HomePath, false).
		AddBreadcrumb("Permissions", Path, false).
		AddBreadcrumb(employee.Username, Path+"/"+strconv.FormatInt(employee.ID, 10), true)

	return c.Render(TemplateDetail, fiber.Map{
		"Navigation": nav,
		"Data": DetailData{
			Employee: employee,
			Grid:     permission.Grid(set),
			CanEdit:  auth.Allows(c, permission.ResourcePermissions, permission.ActionEdit),
		},
	}, handler.BaseLayout)
}

// Grant grants the submitted permission names.
func (s *Service) Grant(c *fiber.Ctx) error {
	return s.change(c, "granted", s.ws.GrantPermissions)
}

// Revoke revokes the submitted permission names.
func (s *Service) Revoke(c *fiber.Ctx) error {
	return s.change(c, "revoked", s.ws.RevokePermissions)
}

func (s *Service) change(
	c *fiber.Ctx,
	verb string,
	apply func(ctx context.Context, employeeID int64, names []string) error,
) error {
	id, err := parseID(c)
	if err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, err.Error())
	}

	back := Path + "/" + strconv.FormatInt(id, 10)

	form := new(ChangeForm)
	if err = c.BodyParser(form); err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, "Invalid form data")
	}

	if err = s.validate.Struct(form); err != nil {
		s.flash(c, session.FlashError, validationMessage(err))
		return c.Redirect(back)
	}

	if err = apply(c.UserContext(), id, form.Permissions); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, workspace.ErrNoLocation) {
			return handler.Fail(c, err)
		}

		log.Error().Err(err).Int64("employee_id", id).Msg("permission change failed")
		s.flash(c, session.FlashError, "Could not change permissions: "+err.Error())

		return c.Redirect(back)
	}

	s.flash(c, session.FlashSuccess, strconv.Itoa(len(form.Permissions))+" permission(s) "+verb+".")

	return c.Redirect(back)
}

// employee finds the member named by the id parameter in the current location.
func (s *Service) employee(c *fiber.Ctx) (domain.Employee, error) {
	id, err := parseID(c)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	employees, err := s.ws.Employees(c.UserContext())
	if err != nil {
		return domain.Employee{}, err
	}

	for _, e := range employees {
		if e.ID == id {
			return e, nil
		}
	}

	return domain.Employee{}, fmt.Errorf("employee %d: %w", id, domain.ErrNotFound)
}

func (s *Service) flash(c *fiber.Ctx, kind, message string) {
	if err := session.SetFlash(c, kind, message); err != nil {
		log.Warn().Err(err).Msg("failed to store flash message")
	}
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return "Field '" + e.Field() + "' failed validation tag '" + e.Tag() + "'"
	}

	return err.Error()
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}
