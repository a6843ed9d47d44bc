// Package webtest provides the fixtures the handler tests share: a views engine that renders
// nothing, an in-memory remote platform and a started workspace on an in-memory local store.
package webtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/db/models"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/localstore"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

// Password is the only password the Remote accepts.
const Password = "secret"

// NoOpViews is a minimal Fiber Views engine used for tests.
// It writes the "error" field from the provided fiber.Map (if any)
// so tests can assert error messages rendered by handlers.
type NoOpViews struct{}

// Load implements fiber.Views.
func (NoOpViews) Load() error { return nil }

// Render implements fiber.Views.
func (NoOpViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	if m, ok := data.(fiber.Map); ok {
		if v, exists := m["error"]; exists && v != nil {
			_, _ = io.WriteString(w, fmt.Sprint(v))
			return nil
		}
	}
	// write template name to have some content
	_, _ = io.WriteString(w, name)

	return nil
}

// RecordingViews renders like NoOpViews and keeps the last template name and bind map.
type RecordingViews struct {
	NoOpViews

	mu   sync.Mutex
	name string
	data fiber.Map
}

// Render implements fiber.Views.
func (v *RecordingViews) Render(w io.Writer, name string, data interface{}, layout ...string) error {
	v.mu.Lock()
	v.name = name
	v.data, _ = data.(fiber.Map)
	v.mu.Unlock()

	return v.NoOpViews.Render(w, name, data, layout...)
}

// Last returns the last rendered template and its bind map.
func (v *RecordingViews) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.data
}

// Remote is an in-memory remote platform.
type Remote struct {
	mu sync.Mutex

	Token     string
	Identity  domain.Identity
	Locations []domain.Location
	Records   map[int64][]permission.Record // by location id
	Staff     []domain.Employee
	Items     []domain.CatalogItem
	Granted   []string
	Revoked   []string

	// LoginErr fails Login when set.
	LoginErr error

	// ListErr fails FetchAuthorizedLocations when set.
	ListErr error

	// Err fails every call after login when set.
	Err error
}

// NewRemote returns a remote with two locations. The owner is granted everything at the first
// location and nothing at the second.
func NewRemote() *Remote {
	all := make([]permission.Record, 0, len(permission.Resources)*len(permission.Actions))

	for _, resource := range permission.Resources {
		for _, action := range permission.Actions {
			all = append(all, permission.Record{
				Name:          permission.Name(resource, action),
				Resource:      resource,
				Action:        action,
				HasPermission: true,
				Source:        permission.SourceRole,
			})
		}
	}

	return &Remote{
		Token:     "token",
		Identity:  domain.Identity{ID: 7, Username: "alice", Email: "alice@example.com", Role: domain.RoleOwner},
		Locations: []domain.Location{{ID: 1, Name: "Main Street", Active: true}, {ID: 2, Name: "Harbor", Active: true}},
		Records:   map[int64][]permission.Record{1: all},
		Staff:     []domain.Employee{{ID: 8, Username: "bob", Role: domain.RoleEmployee, Active: true}},
		Items: []domain.CatalogItem{
			{ID: 1, Name: "Active supplier", Active: true},
			{ID: 2, Name: "Retired supplier", Active: false},
		},
	}
}

// Login implements bootstrap.Authenticator.
func (r *Remote) Login(_ context.Context, username, password string) (string, domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.LoginErr != nil {
		return "", domain.Identity{}, r.LoginErr
	}

	if username != r.Identity.Username || password != Password {
		return "", domain.Identity{}, domain.ErrUnauthorized
	}

	return r.Token, r.Identity, nil
}

// FetchIdentity implements bootstrap.Authenticator.
func (r *Remote) FetchIdentity(_ context.Context, token string) (domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.Token {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	return r.Identity, nil
}

// FetchAuthorizedLocations implements location.Backend.
func (r *Remote) FetchAuthorizedLocations(context.Context, int64) ([]domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	if r.ListErr != nil {
		return nil, r.ListErr
	}

	return append([]domain.Location(nil), r.Locations...), nil
}

// CreateLocation implements location.Backend.
func (r *Remote) CreateLocation(_ context.Context, in domain.LocationInput) (domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return domain.Location{}, r.Err
	}

	loc := domain.Location{
		ID:      int64(100 + len(r.Locations)),
		Name:    in.Name,
		Address: in.Address,
		City:    in.City,
		OwnerID: r.Identity.ID,
		Active:  in.Active,
	}
	r.Locations = append(r.Locations, loc)

	return loc, nil
}

// UpdateLocation implements location.Backend.
func (r *Remote) UpdateLocation(_ context.Context, id int64, in domain.LocationInput) (domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return domain.Location{}, r.Err
	}

	i := domain.IndexOf(r.Locations, id)
	if i < 0 {
		return domain.Location{}, domain.ErrNotFound
	}

	r.Locations[i].Name = in.Name
	r.Locations[i].Address = in.Address
	r.Locations[i].City = in.City
	r.Locations[i].Active = in.Active

	return r.Locations[i], nil
}

// DeleteLocation implements location.Backend.
func (r *Remote) DeleteLocation(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	i := domain.IndexOf(r.Locations, id)
	if i < 0 {
		return domain.ErrNotFound
	}

	r.Locations = append(r.Locations[:i], r.Locations[i+1:]...)

	return nil
}

// FetchPermissions implements permission.Fetcher.
func (r *Remote) FetchPermissions(_ context.Context, _, locationID int64) ([]permission.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	return r.Records[locationID], nil
}

// GrantPermissions implements workspace.Remote.
func (r *Remote) GrantPermissions(_ context.Context, _, _ int64, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.Granted = append(r.Granted, names...)

	return nil
}

// RevokePermissions implements workspace.Remote.
func (r *Remote) RevokePermissions(_ context.Context, _, _ int64, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.Revoked = append(r.Revoked, names...)

	return nil
}

// Employees implements workspace.Remote.
func (r *Remote) Employees(context.Context, int64) ([]domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	return append([]domain.Employee(nil), r.Staff...), nil
}

// Catalog implements workspace.Remote.
func (r *Remote) Catalog(context.Context, int64, domain.CatalogKind) ([]domain.CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	return append([]domain.CatalogItem(nil), r.Items...), nil
}

// FailList makes every later location list fetch return err.
func (r *Remote) FailList(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ListErr = err
}

// Fail makes every later call return err.
func (r *Remote) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Err = err
}

// NewStore returns a local store on a private in-memory database.
func NewStore(t *testing.T) *localstore.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	return localstore.New(db)
}

// NewWorkspace returns a started workspace on remote. With signIn the operator is logged in.
func NewWorkspace(t *testing.T, remote *Remote, signIn bool) *workspace.Workspace {
	t.Helper()

	ctx := context.Background()
	ws := workspace.New(remote, NewStore(t))
	require.NoError(t, ws.Start(ctx))

	if signIn {
		_, err := ws.Login(ctx, remote.Identity.Username, Password)
		require.NoError(t, err)
	}

	return ws
}

// NewConfig returns a config good enough for handlers.
func NewConfig() *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "GoBizAdmin",
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    8080,
			Session: config.Session{ExpiryTime: time.Minute, Storage: config.DefaultSessionStorage},
		},
	}
}

// NewApp returns a fiber app rendering through RecordingViews with a fresh memory session store.
func NewApp() (*fiber.App, *RecordingViews) {
	session.Init(nil, NewConfig())

	views := &RecordingViews{}

	return fiber.New(fiber.Config{Views: views, PassLocalsToViews: true}), views
}

// Get performs a GET request.
func Get(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()

	return Do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
}

// PostForm performs a form encoded POST request.
func PostForm(t *testing.T, app *fiber.App, target string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return Do(t, app, req)
}

// Do performs req and closes the response body at test cleanup.
func Do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// Body reads the response body.
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}
