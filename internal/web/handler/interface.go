package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

// ErrNilDependency is returned by Init when app, cfg or ws is nil.
var ErrNilDependency = errors.New(ErrNilAppCfgWsMsg)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error
}

// CheckDeps returns ErrNilDependency when one of the Init arguments is missing.
func CheckDeps(app *fiber.App, cfg *config.Config, ws *workspace.Workspace) error {
	if app == nil || cfg == nil || ws == nil {
		return ErrNilDependency
	}

	return nil
}
