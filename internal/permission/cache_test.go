package permission

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

// fakeFetcher counts calls per key and can block until released.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[cacheKey]int
	records []Record
	err     error

	entered chan struct{}
	release chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls: make(map[cacheKey]int),
		records: []Record{
			{Name: "view_expenses", HasPermission: true, Source: SourceRole},
		},
	}
}

func (f *fakeFetcher) FetchPermissions(_ context.Context, identityID, locationID int64) ([]Record, error) {
	f.mu.Lock()
	f.calls[cacheKey{identityID: identityID, locationID: locationID}]++
	records, err := f.records, f.err
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}

	if release != nil {
		<-release
	}

	return records, err
}

func (f *fakeFetcher) count(identityID, locationID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[cacheKey{identityID: identityID, locationID: locationID}]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestCache_FreshEntryIsServedFromCache(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := NewCache(fetcher, WithClock(clock.Now), WithStaleAfter(time.Minute))

	assert.Equal(t, StateUninitialized, cache.State(7, 3))

	set, err := cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, Has(set, ResourceExpenses, ActionView))
	assert.Equal(t, StateReady, cache.State(7, 3))

	clock.Advance(30 * time.Second)

	_, err = cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.count(7, 3))
}

func TestCache_StaleEntryIsRefetched(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := NewCache(fetcher, WithClock(clock.Now), WithStaleAfter(time.Minute))

	_, err := cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.Equal(t, StateStale, cache.State(7, 3))

	_, err = cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count(7, 3))
	assert.Equal(t, StateReady, cache.State(7, 3))
}

func TestCache_FetchErrorIsRecordedAndSurfaced(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.err = errBackend
	cache := NewCache(fetcher)

	set, err := cache.Get(context.Background(), 7, 3)
	require.ErrorIs(t, err, errBackend)
	assert.Nil(t, set)
	assert.Equal(t, StateError, cache.State(7, 3))
	require.ErrorIs(t, cache.Err(7, 3), errBackend)
	assert.Equal(t, 1, fetcher.count(7, 3), "no automatic retry")

	// the caller decides to retry
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.mu.Unlock()

	_, err = cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, StateReady, cache.State(7, 3))
	require.NoError(t, cache.Err(7, 3))
}

func TestCache_ConcurrentGetsShareOneFetch(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.entered = make(chan struct{}, 1)
	fetcher.release = make(chan struct{})
	cache := NewCache(fetcher)

	const callers = 10

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)

	wg.Add(callers)

	for range callers {
		go func() {
			defer wg.Done()

			if _, err := cache.Get(context.Background(), 7, 3); err != nil {
				failed.Add(1)
			}
		}()
	}

	<-fetcher.entered
	assert.Equal(t, StateLoading, cache.State(7, 3))

	close(fetcher.release)
	wg.Wait()

	assert.Zero(t, failed.Load())
	assert.Equal(t, 1, fetcher.count(7, 3))
}

func TestCache_DifferentKeysFetchIndependently(t *testing.T) {
	fetcher := newFakeFetcher()
	cache := NewCache(fetcher)

	_, err := cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), 7, 4)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), 8, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.count(7, 3))
	assert.Equal(t, 1, fetcher.count(7, 4))
	assert.Equal(t, 1, fetcher.count(8, 3))
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := newFakeFetcher()
	cache := NewCache(fetcher)

	for _, k := range []cacheKey{{7, 3}, {7, 4}, {8, 3}} {
		_, err := cache.Get(context.Background(), k.identityID, k.locationID)
		require.NoError(t, err)
	}

	cache.Invalidate(7)

	assert.Equal(t, StateUninitialized, cache.State(7, 3))
	assert.Equal(t, StateUninitialized, cache.State(7, 4))
	assert.Equal(t, StateReady, cache.State(8, 3))

	cache.InvalidateAll()
	assert.Equal(t, StateUninitialized, cache.State(8, 3))

	_, err := cache.Get(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count(7, 3))
}

func TestCache_FetchStartedBeforeInvalidationIsDiscarded(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.entered = make(chan struct{}, 1)
	fetcher.release = make(chan struct{})
	cache := NewCache(fetcher)

	done := make(chan error, 1)

	go func() {
		_, err := cache.Get(context.Background(), 7, 3)
		done <- err
	}()

	<-fetcher.entered
	cache.InvalidateAll()
	close(fetcher.release)
	require.NoError(t, <-done)

	assert.Equal(t, StateUninitialized, cache.State(7, 3))
}

func TestCache_CallerContextCancellation(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.entered = make(chan struct{}, 1)
	fetcher.release = make(chan struct{})
	cache := NewCache(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		_, err := cache.Get(ctx, 7, 3)
		done <- err
	}()

	<-fetcher.entered
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// the shared fetch keeps going and fills the cache
	close(fetcher.release)
	require.Eventually(t, func() bool {
		return cache.State(7, 3) == StateReady
	}, time.Second, 5*time.Millisecond)
}

func TestCache_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	again, err := NewMetrics(reg)
	require.NoError(t, err, "registering twice reuses the collectors")

	fetcher := newFakeFetcher()
	cache := NewCache(fetcher, WithMetrics(metrics))

	_, err = cache.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), 1, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.hits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(again.misses), 0)
}
