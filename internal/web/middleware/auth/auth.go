package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/location"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
)

// DefaultReadyTimeout bounds the wait for the initial credential check.
const DefaultReadyTimeout = 30 * time.Second

// Locals keys set by the gate.
const (
	LocalsCurrentUser     = "CurrentUser"
	LocalsCurrentLocation = "CurrentLocation"
	LocalsLocations       = "Locations"
)

// Workspace is the session state the gate reads.
type Workspace interface {
	Done() <-chan struct{}
	Identity() *domain.Identity
	Locations() location.View
}

// Config configures the gate.
type Config struct {
	// PublicPrefixes are served without a signed in identity.
	PublicPrefixes []string

	// ReadyTimeout bounds the wait for the initial credential check.
	ReadyTimeout time.Duration
}

// ConfigDefault is the default config of the gate.
var ConfigDefault = Config{ //nolint:gochecknoglobals
	PublicPrefixes: []string{"/static", "/checkalive", "/metrics"},
	ReadyTimeout:   DefaultReadyTimeout,
}

// New creates the sign-in gate.
func New(ws Workspace, config ...Config) fiber.Handler {
	cfg := ConfigDefault
	if len(config) > 0 {
		cfg = config[0]

		if cfg.PublicPrefixes == nil {
			cfg.PublicPrefixes = ConfigDefault.PublicPrefixes
		}

		if cfg.ReadyTimeout <= 0 {
			cfg.ReadyTimeout = DefaultReadyTimeout
		}
	}

	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())

		for _, prefix := range cfg.PublicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		select {
		case <-ws.Done():
		case <-time.After(cfg.ReadyTimeout):
			log.Warn().Str("path", path).Msg("session check still running, rejecting request")

			return c.Status(fiber.StatusServiceUnavailable).SendString("Starting up, please retry")
		}

		identity := ws.Identity()
		loginPage := IsLoginPage(c)

		if identity == nil {
			if loginPage {
				return c.Next()
			}

			return c.Redirect(handler.LoginPath)
		}

		if loginPage {
			return c.Redirect(handler.HomePath)
		}

		view := ws.Locations()

		c.Locals(LocalsCurrentUser, identity)
		c.Locals(LocalsCurrentLocation, view.Current)
		c.Locals(LocalsLocations, view)

		return c.Next()
	}
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), handler.LoginPath)
}
