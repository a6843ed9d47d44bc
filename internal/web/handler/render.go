package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

// RenderError renders the error page with the given status.
func RenderError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).Render(ErrorTemplate, fiber.Map{
		"Status":  status,
		"Message": message,
	}, BaseLayout)
}

// Fail maps a workspace error to a response. A rejected credential has already signed the
// operator out, so it leads back to the login page.
func Fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Redirect(LoginPath)
	case errors.Is(err, domain.ErrNotFound):
		return RenderError(c, fiber.StatusNotFound, "The requested entry does not exist.")
	case errors.Is(err, workspace.ErrNoLocation):
		return RenderError(c, fiber.StatusConflict, "Select a location first.")
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("remote request failed")

		return RenderError(c, fiber.StatusBadGateway, "The business platform could not be reached.")
	}
}
