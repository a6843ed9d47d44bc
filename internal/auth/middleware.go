package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
)

const forbiddenMessage = "Forbidden: You don't have permission to access this resource"

// Checker answers permission questions for the signed in identity at the current location.
type Checker interface {
	Permissions(ctx context.Context) (*permission.Set, error)
	Allowed(ctx context.Context, checks ...permission.Check) (bool, error)
	AllowedAny(ctx context.Context, checks ...permission.Check) (bool, error)
}

type decide func(ctx context.Context, checks ...permission.Check) (bool, error)

// RequirePermission creates Fiber middleware that requires resource/action.
func RequirePermission(ws Checker, resource, action string) fiber.Handler {
	return require(ws.Allowed, permission.Check{Resource: resource, Action: action})
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given checks.
func RequireAnyPermission(ws Checker, checks ...permission.Check) fiber.Handler {
	if len(checks) == 0 {
		panic(ErrNoChecks)
	}

	return require(ws.AllowedAny, checks...)
}

// RequireAllPermissions creates Fiber middleware that requires all the given checks.
func RequireAllPermissions(ws Checker, checks ...permission.Check) fiber.Handler {
	if len(checks) == 0 {
		panic(ErrNoChecks)
	}

	return require(ws.Allowed, checks...)
}

func require(allowed decide, checks ...permission.Check) fiber.Handler {
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name())
	}

	return func(c *fiber.Ctx) error {
		ok, err := allowed(c.UserContext(), checks...)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Redirect(handler.LoginPath)
			}

			log.Error().Err(err).Strs("permissions", names).Msg("Failed to check permissions")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !ok {
			log.Warn().Strs("permissions", names).Str("path", c.Path()).Msg("User lacks required permissions")

			return c.Status(fiber.StatusForbidden).SendString(forbiddenMessage)
		}

		return c.Next()
	}
}

// Allows reports whether the permission set in the request locals grants resource/action.
// Useful for conditional rendering in handlers.
func Allows(c *fiber.Ctx, resource, action string) bool {
	set, _ := c.Locals(LocalsPermissions).(*permission.Set)

	return permission.Has(set, resource, action)
}

// Locals keys set by AddPermissionsToLocals.
const (
	LocalsPermissions   = "Permissions"
	LocalsHasPermission = "hasPermission"
)

// AddPermissionsToLocals is a Fiber middleware that adds the permission set of the signed in
// identity to fiber.Locals, so templates can render conditionally. A failed lookup leaves an
// empty set behind.
func AddPermissionsToLocals(ws Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := ws.Permissions(c.UserContext())
		if err != nil {
			log.Error().Err(err).Msg("Failed to get permissions")

			set = nil
		}

		c.Locals(LocalsPermissions, set)
		c.Locals(LocalsHasPermission, func(resource, action string) bool {
			return permission.Has(set, resource, action)
		})

		return c.Next()
	}
}
