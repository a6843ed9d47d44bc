package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	trequire "github.com/stretchr/testify/require"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
)

type fakeChecker struct {
	set *permission.Set
	err error
}

func (f fakeChecker) Permissions(context.Context) (*permission.Set, error) {
	return f.set, f.err
}

func (f fakeChecker) Allowed(_ context.Context, checks ...permission.Check) (bool, error) {
	if f.err != nil {
		return false, f.err
	}

	return permission.HasAll(f.set, checks...), nil
}

func (f fakeChecker) AllowedAny(_ context.Context, checks ...permission.Check) (bool, error) {
	if f.err != nil {
		return false, f.err
	}

	return permission.HasAny(f.set, checks...), nil
}

func newChecker(granted ...string) fakeChecker {
	records := make([]permission.Record, 0, len(granted))
	for _, name := range granted {
		records = append(records, permission.Record{Name: name, HasPermission: true})
	}

	return fakeChecker{set: permission.NewSet(records)}
}

func do(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	trequire.NoError(t, err)

	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func ok(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		checker    fakeChecker
		wantStatus int
	}{
		{
			name:       "granted",
			checker:    newChecker("view_expenses"),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing record denies",
			checker:    newChecker("create_expenses"),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no permission set denies",
			checker:    fakeChecker{},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "lookup failure",
			checker:    fakeChecker{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "rejected credential redirects to login",
			checker:    fakeChecker{err: domain.ErrUnauthorized},
			wantStatus: http.StatusFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", RequirePermission(tt.checker, permission.ResourceExpenses, permission.ActionView), ok)

			resp := do(t, app)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, handler.LoginPath, resp.Header.Get("Location"))
			}
		})
	}
}

func TestRequireAnyAndAllPermissions(t *testing.T) {
	checker := newChecker("view_expenses")
	checks := []permission.Check{
		{Resource: permission.ResourceExpenses, Action: permission.ActionView},
		{Resource: permission.ResourceInvoices, Action: permission.ActionView},
	}

	app := fiber.New()
	app.Get("/", RequireAnyPermission(checker, checks...), ok)
	assert.Equal(t, http.StatusOK, do(t, app).StatusCode)

	app = fiber.New()
	app.Get("/", RequireAllPermissions(checker, checks...), ok)
	assert.Equal(t, http.StatusForbidden, do(t, app).StatusCode)

	assert.Panics(t, func() { RequireAnyPermission(checker) })
	assert.Panics(t, func() { RequireAllPermissions(checker) })
}

func TestAddPermissionsToLocals(t *testing.T) {
	tests := []struct {
		name    string
		checker fakeChecker
		want    string
	}{
		{name: "granted", checker: newChecker("edit_units"), want: "true"},
		{name: "not granted", checker: newChecker("view_units"), want: "false"},
		{name: "lookup failure", checker: fakeChecker{err: errors.New("boom")}, want: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AddPermissionsToLocals(tt.checker))
			app.Get("/", func(c *fiber.Ctx) error {
				has, isFunc := c.Locals(LocalsHasPermission).(func(string, string) bool)
				trequire.True(t, isFunc)
				assert.Equal(t, has(permission.ResourceUnits, permission.ActionEdit),
					Allows(c, permission.ResourceUnits, permission.ActionEdit))

				if Allows(c, permission.ResourceUnits, permission.ActionEdit) {
					return c.SendString("true")
				}

				return c.SendString("false")
			})

			body, err := io.ReadAll(do(t, app).Body)
			trequire.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
