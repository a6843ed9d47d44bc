package permission

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultStaleAfter is the freshness window of a cached permission set.
const DefaultStaleAfter = 5 * time.Minute

// Fetcher loads the permission records of an identity at a location from the remote platform.
type Fetcher interface {
	FetchPermissions(ctx context.Context, identityID, locationID int64) ([]Record, error)
}

// State is the lifecycle state of a cache entry.
type State uint8

const (
	// StateUninitialized means nothing was ever requested for the key.
	StateUninitialized State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateReady means a fresh set is cached.
	StateReady
	// StateStale means the cached set is older than the freshness window.
	StateStale
	// StateError means the last fetch failed.
	StateError
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

type cacheKey struct {
	identityID int64
	locationID int64
}

type entry struct {
	seq       uint64 // distinguishes entries recreated after an invalidation
	state     State
	set       *Set
	fetchedAt time.Time
	err       error
}

// Cache holds permission sets per (identity, location) pair.
type Cache struct {
	fetcher    Fetcher
	staleAfter time.Duration
	now        func() time.Time
	metrics    *Metrics

	mu      sync.Mutex
	seq     uint64
	entries map[cacheKey]*entry
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleAfter sets the freshness window. Non-positive values keep the default.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records hits, misses and fetch errors.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// NewCache creates an empty cache backed by fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:    fetcher,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		entries:    make(map[cacheKey]*entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the permission set of identityID at locationID. A fresh cached set is returned
// without a request. Otherwise the set is fetched once, shared with every concurrent caller of
// the same key, and cached. A failed fetch is recorded and returned; it is never retried here.
func (c *Cache) Get(ctx context.Context, identityID, locationID int64) (*Set, error) {
	k := cacheKey{identityID: identityID, locationID: locationID}

	c.mu.Lock()

	e := c.entries[k]
	if e != nil && e.state == StateReady && !c.expired(e) {
		set := e.set
		c.mu.Unlock()
		c.metrics.hit()

		return set, nil
	}

	if e == nil {
		c.seq++
		e = &entry{seq: c.seq}
		c.entries[k] = e
	}

	e.state = StateLoading
	c.mu.Unlock()
	c.metrics.miss()

	// the shared fetch must not die with the first caller's context
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flightKey(e.seq, k), func() (interface{}, error) {
		records, err := c.fetcher.FetchPermissions(fetchCtx, identityID, locationID)

		return c.store(k, e, records, err)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*Set), nil //nolint:forcetypeassert // store always returns *Set
	}
}

// store writes a fetch result into e unless e was invalidated while the fetch was running.
func (c *Cache) store(k cacheKey, e *entry, records []Record, err error) (*Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.entries[k] == e

	if err != nil {
		c.metrics.fetchError()

		if current {
			e.state = StateError
			e.err = err
		}

		log.Debug().Err(err).Int64("identity_id", k.identityID).Int64("location_id", k.locationID).
			Msg("permission fetch failed")

		return nil, err
	}

	set := NewSet(records)

	if current {
		e.state = StateReady
		e.set = set
		e.err = nil
		e.fetchedAt = c.now()
	} else {
		log.Debug().Int64("identity_id", k.identityID).Int64("location_id", k.locationID).
			Msg("discarding permission set fetched before invalidation")
	}

	return set, nil
}

// State reports the lifecycle state of the key.
func (c *Cache) State(identityID, locationID int64) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[cacheKey{identityID: identityID, locationID: locationID}]

	switch {
	case e == nil:
		return StateUninitialized
	case e.state == StateReady && c.expired(e):
		return StateStale
	default:
		return e.state
	}
}

// Err returns the error of the last failed fetch of the key, if the key is in StateError.
func (c *Cache) Err(identityID, locationID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.entries[cacheKey{identityID: identityID, locationID: locationID}]; e != nil && e.state == StateError {
		return e.err
	}

	return nil
}

// Invalidate drops every entry of the identity.
func (c *Cache) Invalidate(identityID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.identityID == identityID {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]*entry)
}

func (c *Cache) expired(e *entry) bool {
	return c.now().Sub(e.fetchedAt) >= c.staleAfter
}

func flightKey(seq uint64, k cacheKey) string {
	return strconv.FormatUint(seq, 10) + "/" +
		strconv.FormatInt(k.identityID, 10) + "/" +
		strconv.FormatInt(k.locationID, 10)
}
