package location

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

// ErrReload is returned by Create, Update and Delete when the remote mutation succeeded but the
// list could not be fetched afterwards. The mutation must not be repeated.
var ErrReload = errors.New("location list could not be reloaded")

// State is the load state of the location list.
type State uint8

const (
	// Empty means no list is loaded.
	Empty State = iota
	// Loading means a fetch is in flight.
	Loading
	// Populated means the list was fetched at least once since the last Clear.
	Populated
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Populated:
		return "populated"
	default:
		return "unknown"
	}
}

// Backend is the remote side of the location list.
type Backend interface {
	FetchAuthorizedLocations(ctx context.Context, identityID int64) ([]domain.Location, error)
	CreateLocation(ctx context.Context, in domain.LocationInput) (domain.Location, error)
	UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (domain.Location, error)
	DeleteLocation(ctx context.Context, id int64) error
}

// SelectionStore persists the current location. LoadSelection returns nil when nothing usable
// is stored.
type SelectionStore interface {
	LoadSelection(ctx context.Context) (*domain.Location, error)
	SaveSelection(ctx context.Context, loc domain.Location) error
	ClearSelection(ctx context.Context) error
}

// IdentitySource returns the signed in identity or nil.
type IdentitySource interface {
	Identity() *domain.Identity
}

// View is a consistent copy of the manager state.
type View struct {
	State     State
	Locations []domain.Location
	Current   *domain.Location
	Err       error
}

// Manager owns the location list and the current selection.
//
// Operations are serialized by opMu. The state fields are guarded by mu, which is never held
// across a remote call, so Snapshot does not wait for the network. An explicit selection is
// written to the store before mu is taken. Store writes that follow a reconcile or a clear
// stay under mu so they are ordered against Clear.
type Manager struct {
	backend  Backend
	store    SelectionStore
	identity IdentitySource

	opMu sync.Mutex

	mu        sync.RWMutex
	state     State
	locations []domain.Location
	current   *domain.Location
	err       error
	epoch     uint64
}

// NewManager creates an empty manager.
func NewManager(backend Backend, store SelectionStore, identity IdentitySource) *Manager {
	return &Manager{
		backend:  backend,
		store:    store,
		identity: identity,
	}
}

// Restore loads the persisted selection. It only fills an empty selection and never fails:
// an unreadable store is logged and treated as nothing stored.
func (m *Manager) Restore(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	loc, err := m.store.LoadSelection(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to restore current location")
		return
	}

	if loc == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		m.current = loc
		log.Debug().Int64("location_id", loc.ID).Msg("restored current location")
	}
}

// Fetch loads the authorized list for the signed in identity and reconciles the selection.
// Without an identity it does nothing. On failure the previous list and selection are kept.
func (m *Manager) Fetch(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	return m.fetch(ctx, m.identity.Identity())
}

// Sync follows a change of the signed in identity. Before the session finished its initial
// check nothing happens, so a pending identity does not wipe the restored selection.
func (m *Manager) Sync(ctx context.Context, identity *domain.Identity, initialized bool) error {
	if !initialized {
		return nil
	}

	if identity == nil {
		m.Clear(ctx)
		return nil
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	return m.fetch(ctx, identity)
}

func (m *Manager) fetch(ctx context.Context, identity *domain.Identity) error {
	if identity == nil {
		return nil
	}

	m.mu.Lock()
	epoch := m.epoch
	previous := m.state
	m.state = Loading
	m.mu.Unlock()

	fetched, err := m.backend.FetchAuthorizedLocations(ctx, identity.ID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		log.Debug().Int64("identity_id", identity.ID).Msg("discarding location list fetched before clear")
		return nil
	}

	if err != nil {
		m.state = previous
		m.err = err
		log.Warn().Err(err).Int64("identity_id", identity.ID).Msg("failed to fetch locations")

		return fmt.Errorf("fetch locations: %w", err)
	}

	d := Reconcile(m.current, fetched)

	m.locations = fetched
	m.current = d.Current
	m.state = Populated
	m.err = nil

	m.persist(ctx, d)

	ev := log.Debug().Int64("identity_id", identity.ID).Int("locations", len(fetched))
	if d.Current != nil {
		ev = ev.Int64("location_id", d.Current.ID)
	}

	ev.Msg("location list reconciled")

	return nil
}

// persist writes a decision to the selection store. Store failures are logged; the in-memory
// selection stays authoritative for the running process.
func (m *Manager) persist(ctx context.Context, d Decision) {
	if d.Drop {
		if err := m.store.ClearSelection(ctx); err != nil {
			log.Error().Err(err).Msg("failed to remove stale location selection")
		}
	}

	if d.Persist && d.Current != nil {
		if err := m.store.SaveSelection(ctx, *d.Current); err != nil {
			log.Error().Err(err).Int64("location_id", d.Current.ID).Msg("failed to persist location selection")
		}
	}
}

// SetCurrent selects loc and persists it. It does not refetch the list.
func (m *Manager) SetCurrent(ctx context.Context, loc domain.Location) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	return m.setCurrent(ctx, loc)
}

func (m *Manager) setCurrent(ctx context.Context, loc domain.Location) error {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()

	saveErr := m.store.SaveSelection(ctx, loc)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()

		// Clear ran while the selection was written; it must not outlive the clear.
		if err := m.store.ClearSelection(ctx); err != nil {
			log.Error().Err(err).Msg("failed to remove location selection")
		}

		log.Debug().Int64("location_id", loc.ID).Msg("discarding location selected before clear")

		return nil
	}

	m.current = &loc
	m.mu.Unlock()

	if saveErr != nil {
		return fmt.Errorf("persist location %d: %w", loc.ID, saveErr)
	}

	log.Debug().Int64("location_id", loc.ID).Msg("current location set")

	return nil
}

// Switch selects the loaded location with the given id.
func (m *Manager) Switch(ctx context.Context, id int64) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	i := domain.IndexOf(m.locations, id)

	var loc domain.Location
	if i >= 0 {
		loc = m.locations[i]
	}
	m.mu.RUnlock()

	if i < 0 {
		return fmt.Errorf("location %d: %w", id, domain.ErrNotFound)
	}

	return m.setCurrent(ctx, loc)
}

// Create creates a location remotely and reloads the list once the remote call returned.
func (m *Manager) Create(ctx context.Context, in domain.LocationInput) (domain.Location, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	created, err := m.backend.CreateLocation(ctx, in)
	if err != nil {
		return domain.Location{}, fmt.Errorf("create location: %w", err)
	}

	log.Info().Int64("location_id", created.ID).Str("name", created.Name).Msg("location created")

	return created, m.reload(ctx)
}

// Update edits a location remotely. The current selection is replaced right away when it is the
// edited location, then the list is reloaded.
func (m *Manager) Update(ctx context.Context, id int64, in domain.LocationInput) (domain.Location, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	updated, err := m.backend.UpdateLocation(ctx, id, in)
	if err != nil {
		return domain.Location{}, fmt.Errorf("update location %d: %w", id, err)
	}

	m.mu.RLock()
	isCurrent := m.current != nil && m.current.ID == id
	m.mu.RUnlock()

	if isCurrent {
		if err = m.setCurrent(ctx, updated); err != nil {
			log.Error().Err(err).Msg("failed to persist edited current location")
		}
	}

	log.Info().Int64("location_id", id).Msg("location updated")

	return updated, m.reload(ctx)
}

// Delete removes a location remotely. When it was the current location the selection is
// cleared before the list is reloaded, so the deleted location is never reported as current.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.backend.DeleteLocation(ctx, id); err != nil {
		return fmt.Errorf("delete location %d: %w", id, err)
	}

	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current = nil

		if err := m.store.ClearSelection(ctx); err != nil {
			log.Error().Err(err).Msg("failed to remove deleted location selection")
		}
	}
	m.mu.Unlock()

	log.Info().Int64("location_id", id).Msg("location deleted")

	return m.reload(ctx)
}

// reload refetches the list after a successful mutation.
func (m *Manager) reload(ctx context.Context) error {
	if err := m.fetch(ctx, m.identity.Identity()); err != nil {
		return fmt.Errorf("%w: %w", ErrReload, err)
	}

	return nil
}

// Clear forgets the list and the selection, including the persisted copy. A fetch that is
// in flight when Clear runs does not apply its result.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.epoch++
	m.state = Empty
	m.locations = nil
	m.current = nil
	m.err = nil

	if err := m.store.ClearSelection(ctx); err != nil {
		log.Error().Err(err).Msg("failed to remove location selection")
	}
}

// Current returns a copy of the current location or nil.
func (m *Manager) Current() *domain.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil
	}

	loc := *m.current

	return &loc
}

// Snapshot returns a copy of the manager state.
func (m *Manager) Snapshot() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		State:     m.state,
		Locations: slices.Clone(m.locations),
		Err:       m.err,
	}

	if m.current != nil {
		loc := *m.current
		v.Current = &loc
	}

	return v
}
