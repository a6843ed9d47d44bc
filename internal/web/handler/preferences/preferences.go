// Package preferences stores the user interface flags of the console.
package preferences

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

// Path is the path prefix of the preference actions.
const Path = handler.RootPath + "preferences"

// ShowInactiveForm toggles the display of inactive catalog entries.
type ShowInactiveForm struct {
	Show     bool   `form:"show"`
	ReturnTo string `form:"return_to"`
}

// Service is the preferences handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	ws  *workspace.Workspace
}

// Handler is the preferences handler.
var Handler = Service{}

// Init initializes the preferences handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if err := handler.CheckDeps(app, cfg, ws); err != nil {
		return err
	}

	s.cfg = cfg
	s.ws = ws

	app.Post(Path+"/show-inactive", s.ShowInactive)

	return nil
}

// ShowInactive stores the show inactive flag and returns to the submitting page.
func (s *Service) ShowInactive(c *fiber.Ctx) error {
	form := new(ShowInactiveForm)
	if err := c.BodyParser(form); err != nil {
		return handler.RenderError(c, fiber.StatusBadRequest, "Invalid form data")
	}

	if err := s.ws.SetShowInactive(c.UserContext(), form.Show); err != nil {
		log.Error().Err(err).Msg("failed to store preferences")

		if errFlash := session.SetFlash(c, session.FlashError, "Could not store the preference."); errFlash != nil {
			log.Warn().Err(errFlash).Msg("failed to store flash message")
		}
	}

	return c.Redirect(localPath(form.ReturnTo))
}

// localPath keeps redirects on this server.
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return handler.HomePath
	}

	return p
}
