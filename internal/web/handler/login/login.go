package login

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/bootstrap"
	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Form is the submitted login form.
type Form struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required,max=256"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	ws       *workspace.Workspace
	validate *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws
	s.validate = validator.New()

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, "", nil)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, "", ErrInvalidFormData)
	}

	if err := s.validate.Struct(form); err != nil {
		log.Debug().Err(err).Msg("login form validation failed")
		return s.render(c, form.Username, fmt.Errorf("%w: username and password are required", ErrInvalidFormData))
	}

	identity, err := s.ws.Login(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, bootstrap.ErrInvalidCredentials) {
			log.Info().Str("username", form.Username).Msg("login rejected")
			return s.render(c, form.Username, ErrInvalidCredentials)
		}

		if errors.Is(err, domain.ErrUnauthorized) {
			log.Warn().Err(err).Str("username", form.Username).Msg("new session rejected by platform")
			return s.render(c, form.Username, ErrSessionRejected)
		}

		log.Error().Err(err).Str("username", form.Username).Msg("login failed")

		return s.render(c, form.Username, ErrPlatformUnavailable)
	}

	if err = session.SetFlash(c, session.FlashSuccess, "Welcome back, "+identity.Username+"."); err != nil {
		log.Warn().Err(err).Msg("failed to store flash message")
	}

	return c.Redirect(handler.HomePath)
}

func (s *Service) render(c *fiber.Ctx, username string, err error) error {
	data := fiber.Map{
		"Title":    s.cfg.Title,
		"Username": username,
	}

	if err != nil {
		data["error"] = err.Error()
	}

	return c.Render(TemplateName, data)
}
