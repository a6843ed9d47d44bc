// Package workspace is the state container of one running console. It owns the session, the
// location manager and the permission cache, and wires them so that identity changes reach the
// location list and the permission cache in order.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/bootstrap"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/location"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
)

var (
	// ErrNoLocation is returned by location scoped calls while no location is selected.
	ErrNoLocation = errors.New("no current location")
	// ErrNoPermissionNames is returned by grant and revoke calls without permission names.
	ErrNoPermissionNames = errors.New("no permission names given")
)

// Remote is the remote platform as seen by the console.
type Remote interface {
	bootstrap.Authenticator
	location.Backend
	permission.Fetcher

	GrantPermissions(ctx context.Context, identityID, locationID int64, names []string) error
	RevokePermissions(ctx context.Context, identityID, locationID int64, names []string) error
	Employees(ctx context.Context, locationID int64) ([]domain.Employee, error)
	Catalog(ctx context.Context, locationID int64, kind domain.CatalogKind) ([]domain.CatalogItem, error)
}

// Store is the client-local durable storage.
type Store interface {
	bootstrap.TokenStore
	location.SelectionStore

	Preferences(ctx context.Context) (domain.Preferences, error)
	SavePreferences(ctx context.Context, prefs domain.Preferences) error
}

// Workspace owns the console state.
type Workspace struct {
	remote      Remote
	store       Store
	session     *bootstrap.Session
	locations   *location.Manager
	permissions *permission.Cache

	mu         sync.Mutex
	identityID int64
	syncErr    error // outcome of the location sync run by the last identity change
}

// New assembles a workspace. opts configure the permission cache.
func New(remote Remote, store Store, opts ...permission.Option) *Workspace {
	w := &Workspace{
		remote:      remote,
		store:       store,
		session:     bootstrap.New(store, remote),
		permissions: permission.NewCache(remote, opts...),
	}

	w.locations = location.NewManager(remote, store, w.session)
	w.session.OnChange(w.identityChanged)

	return w
}

// identityChanged runs after every session change. The location list follows the identity once
// the initial check is done; permission entries of a previous identity are dropped.
func (w *Workspace) identityChanged(ctx context.Context, identity *domain.Identity) {
	w.mu.Lock()
	previous := w.identityID
	w.identityID = 0

	if identity != nil {
		w.identityID = identity.ID
	}
	w.mu.Unlock()

	if previous != 0 && (identity == nil || identity.ID != previous) {
		w.permissions.Invalidate(previous)
	}

	err := w.locations.Sync(ctx, identity, w.session.Ready())
	if err != nil {
		log.Warn().Err(err).Msg("location sync after identity change failed")
	}

	w.mu.Lock()
	w.syncErr = err
	w.mu.Unlock()
}

// Start restores the persisted selection, resolves the stored credential and loads the location
// list. A failed list fetch is returned but leaves the workspace usable.
func (w *Workspace) Start(ctx context.Context) error {
	w.locations.Restore(ctx)

	state := w.session.Start(ctx)
	log.Info().Stringer("state", state).Msg("session bootstrap finished")

	return w.guard(ctx, w.locations.Sync(ctx, w.session.Identity(), true))
}

// guard signs out when err says the remote platform rejected the credential.
func (w *Workspace) guard(ctx context.Context, err error) error {
	if err != nil && errors.Is(err, domain.ErrUnauthorized) && w.session.State() == bootstrap.Authenticated {
		w.session.Expire(ctx)
	}

	return err
}

// Ready reports whether the initial credential check is done.
func (w *Workspace) Ready() bool {
	return w.session.Ready()
}

// Done is closed when the initial credential check is done.
func (w *Workspace) Done() <-chan struct{} {
	return w.session.Done()
}

// State returns the session state.
func (w *Workspace) State() bootstrap.State {
	return w.session.State()
}

// Identity returns the signed in identity or nil.
func (w *Workspace) Identity() *domain.Identity {
	return w.session.Identity()
}

// Login signs in and loads the location list of the new identity.
// When the platform rejects the new credential while the location list is loaded, the session
// is expired again and the rejection is returned. Other list failures leave the operator signed
// in with the error recorded on the location view.
func (w *Workspace) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	identity, err := w.session.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	syncErr := w.syncErr
	w.syncErr = nil
	w.mu.Unlock()

	if errors.Is(syncErr, domain.ErrUnauthorized) {
		return nil, fmt.Errorf("load locations after sign in: %w", w.guard(ctx, syncErr))
	}

	return identity, nil
}

// Logout signs out. Identity, location list, persisted selection and the identity's permission
// entries are gone when it returns.
func (w *Workspace) Logout(ctx context.Context) error {
	return w.session.Logout(ctx)
}

// Locations returns the location state for rendering.
func (w *Workspace) Locations() location.View {
	return w.locations.Snapshot()
}

// CurrentLocation returns the current location or nil.
func (w *Workspace) CurrentLocation() *domain.Location {
	return w.locations.Current()
}

// RefreshLocations reloads the location list.
func (w *Workspace) RefreshLocations(ctx context.Context) error {
	return w.guard(ctx, w.locations.Fetch(ctx))
}

// SwitchLocation makes the loaded location id current.
func (w *Workspace) SwitchLocation(ctx context.Context, id int64) error {
	return w.locations.Switch(ctx, id)
}

// CreateLocation creates a location and reloads the list.
func (w *Workspace) CreateLocation(ctx context.Context, in domain.LocationInput) (domain.Location, error) {
	loc, err := w.locations.Create(ctx, in)

	return loc, w.guard(ctx, err)
}

// UpdateLocation edits a location and reloads the list.
func (w *Workspace) UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (domain.Location, error) {
	loc, err := w.locations.Update(ctx, id, in)

	return loc, w.guard(ctx, err)
}

// DeleteLocation deletes a location and reloads the list.
func (w *Workspace) DeleteLocation(ctx context.Context, id int64) error {
	return w.guard(ctx, w.locations.Delete(ctx, id))
}

// scope returns the signed in identity and the current location, or nil when either is missing.
func (w *Workspace) scope() (*domain.Identity, *domain.Location) {
	identity := w.session.Identity()
	if identity == nil {
		return nil, nil
	}

	current := w.locations.Current()
	if current == nil {
		return identity, nil
	}

	return identity, current
}

// Permissions returns the permission set of the signed in identity at the current location.
// Without identity or location the set is nil, which grants nothing.
func (w *Workspace) Permissions(ctx context.Context) (*permission.Set, error) {
	identity, current := w.scope()
	if identity == nil || current == nil {
		return nil, nil
	}

	set, err := w.permissions.Get(ctx, identity.ID, current.ID)
	if err != nil {
		return nil, w.guard(ctx, err)
	}

	return set, nil
}

// Allowed reports whether every check is granted.
func (w *Workspace) Allowed(ctx context.Context, checks ...permission.Check) (bool, error) {
	set, err := w.Permissions(ctx)
	if err != nil {
		return false, err
	}

	return permission.HasAll(set, checks...), nil
}

// AllowedAny reports whether at least one check is granted.
func (w *Workspace) AllowedAny(ctx context.Context, checks ...permission.Check) (bool, error) {
	set, err := w.Permissions(ctx)
	if err != nil {
		return false, err
	}

	return permission.HasAny(set, checks...), nil
}

// HasPermission reports whether resource/action is granted. Lookup failures deny.
func (w *Workspace) HasPermission(ctx context.Context, resource, action string) bool {
	ok, err := w.Allowed(ctx, permission.Check{Resource: resource, Action: action})
	if err != nil {
		log.Warn().Err(err).Str("permission", permission.Name(resource, action)).Msg("permission lookup failed, denying")
		return false
	}

	return ok
}

// PermissionsOf returns the permission records of another member at the current location.
// They are fetched directly and never cached.
func (w *Workspace) PermissionsOf(ctx context.Context, employeeID int64) (*permission.Set, error) {
	_, current := w.scope()
	if current == nil {
		return nil, ErrNoLocation
	}

	records, err := w.remote.FetchPermissions(ctx, employeeID, current.ID)
	if err != nil {
		return nil, w.guard(ctx, err)
	}

	return permission.NewSet(records), nil
}

// GrantPermissions grants names to employeeID at the current location. Every cached permission
// set is dropped afterwards.
func (w *Workspace) GrantPermissions(ctx context.Context, employeeID int64, names []string) error {
	return w.mutatePermissions(ctx, "grant", employeeID, names, w.remote.GrantPermissions)
}

// RevokePermissions revokes names from employeeID at the current location. Every cached
// permission set is dropped afterwards.
func (w *Workspace) RevokePermissions(ctx context.Context, employeeID int64, names []string) error {
	return w.mutatePermissions(ctx, "revoke", employeeID, names, w.remote.RevokePermissions)
}

func (w *Workspace) mutatePermissions(
	ctx context.Context,
	op string,
	employeeID int64,
	names []string,
	call func(ctx context.Context, identityID, locationID int64, names []string) error,
) error {
	if len(names) == 0 {
		return ErrNoPermissionNames
	}

	_, current := w.scope()
	if current == nil {
		return ErrNoLocation
	}

	if err := call(ctx, employeeID, current.ID, names); err != nil {
		return w.guard(ctx, fmt.Errorf("%s permissions: %w", op, err))
	}

	w.permissions.InvalidateAll()

	log.Info().Str("op", op).Int64("employee_id", employeeID).Int64("location_id", current.ID).
		Strs("permissions", names).Msg("permissions changed")

	return nil
}

// Employees lists the members of the current location.
func (w *Workspace) Employees(ctx context.Context) ([]domain.Employee, error) {
	_, current := w.scope()
	if current == nil {
		return nil, ErrNoLocation
	}

	employees, err := w.remote.Employees(ctx, current.ID)

	return employees, w.guard(ctx, err)
}

// Catalog lists a catalog of the current location. Inactive items are dropped unless the
// show inactive preference is set.
func (w *Workspace) Catalog(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	_, current := w.scope()
	if current == nil {
		return nil, ErrNoLocation
	}

	items, err := w.remote.Catalog(ctx, current.ID, kind)
	if err != nil {
		return nil, w.guard(ctx, err)
	}

	prefs, err := w.Preferences(ctx)
	if err != nil {
		return nil, err
	}

	return domain.FilterActive(items, prefs.ShowInactive), nil
}

// Preferences returns the UI preferences.
func (w *Workspace) Preferences(ctx context.Context) (domain.Preferences, error) {
	return w.store.Preferences(ctx)
}

// SetShowInactive stores the show inactive preference.
func (w *Workspace) SetShowInactive(ctx context.Context, show bool) error {
	prefs, err := w.store.Preferences(ctx)
	if err != nil {
		return err
	}

	prefs.ShowInactive = show

	return w.store.SavePreferences(ctx, prefs)
}
