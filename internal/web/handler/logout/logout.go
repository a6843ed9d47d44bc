package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

// Path is the path of the logout action.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	ws  *workspace.Workspace
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws

	app.Post(Path, s.Logout)

	return nil
}

// Logout signs the operator out. Identity, locations, the persisted selection and cached
// permissions are gone before the redirect is sent.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.ws.Logout(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("failed to clear the stored credential")
	}

	if err := session.SetFlash(c, session.FlashSuccess, "You have been signed out."); err != nil {
		log.Warn().Err(err).Msg("failed to store flash message")
	}

	return c.Redirect(handler.LoginPath)
}
