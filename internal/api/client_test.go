package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) {
	return string(s), nil
}

type recorded struct {
	method string
	path   string
	auth   string
	rid    string
	agent  string
	body   map[string]any
}

type fakeRemote struct {
	mu       sync.Mutex
	requests []recorded
}

func (f *fakeRemote) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, tokens TokenStore, opts ...Option) (*Client, *fakeRemote) {
	t.Helper()

	remote := &fakeRemote{}
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in loginRequest
		_ = json.NewDecoder(r.Body).Decode(&in)

		if in.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Token: "tok-1",
			User:  domain.Identity{ID: 7, Username: in.Username, Role: domain.RoleOwner},
		})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}

		writeJSON(w, http.StatusOK, domain.Identity{ID: 7, Username: "alice", Role: domain.RoleOwner})
	})
	mux.HandleFunc("GET /users/7/businesses", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Location{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}})
	})
	mux.HandleFunc("POST /businesses", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, domain.Location{ID: 9, Name: "New"})
	})
	mux.HandleFunc("PUT /businesses/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "9" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
			return
		}

		writeJSON(w, http.StatusOK, domain.Location{ID: 9, Name: "Renamed"})
	})
	mux.HandleFunc("DELETE /businesses/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /businesses/3/users/7/permissions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"name": "view_expenses", "resource": "expenses", "action": "view", "has_permission": true, "source": "both"},
			{"name": "delete_expenses", "resource": "expenses", "action": "delete", "has_permission": false, "source": "none"},
		})
	})
	mux.HandleFunc("POST /businesses/3/users/8/permissions/{op}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /businesses/3/employees", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Employee{{ID: 8, Username: "bob", Active: true}})
	})
	mux.HandleFunc("GET /businesses/3/units", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []domain.CatalogItem{{ID: 1, Name: "kg", Active: true}})
	})
	mux.HandleFunc("GET /businesses/3/suppliers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maintenance"})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			rid:    r.Header.Get(HeaderRequestID),
			agent:  r.Header.Get("User-Agent"),
		}

		if r.Method == http.MethodPost && r.URL.Path != "/auth/login" {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}

		remote.mu.Lock()
		remote.requests = append(remote.requests, rec)
		remote.mu.Unlock()

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.API{BaseURL: srv.URL + "/", Timeout: 5 * time.Second, UserAgent: "GoBizAdmin-test"}

	return New(cfg, tokens, opts...), remote
}

func TestLogin(t *testing.T) {
	c, remote := newTestClient(t, staticTokens(""))

	token, identity, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int64(7), identity.ID)
	assert.Empty(t, remote.last().auth, "login is sent without a bearer token")

	_, _, err = c.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFetchIdentity(t *testing.T) {
	c, remote := newTestClient(t, staticTokens("ignored"))

	identity, err := c.FetchIdentity(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "Bearer good", remote.last().auth)

	_, err = c.FetchIdentity(context.Background(), "expired")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Contains(t, err.Error(), "token expired")
}

func TestRequestHeaders(t *testing.T) {
	c, remote := newTestClient(t, staticTokens("stored"))

	_, err := c.FetchAuthorizedLocations(context.Background(), 7)
	require.NoError(t, err)

	first := remote.last()
	assert.Equal(t, "Bearer stored", first.auth)
	assert.Equal(t, "GoBizAdmin-test", first.agent)

	_, err = uuid.Parse(first.rid)
	require.NoError(t, err)

	_, err = c.FetchAuthorizedLocations(context.Background(), 7)
	require.NoError(t, err)
	assert.NotEqual(t, first.rid, remote.last().rid, "every request gets its own id")
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	c, remote := newTestClient(t, staticTokens(""))

	_, err := c.FetchAuthorizedLocations(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, remote.requests, "nothing is sent without a token")
}

func TestLocations(t *testing.T) {
	c, remote := newTestClient(t, staticTokens("stored"))
	ctx := context.Background()

	locations, err := c.FetchAuthorizedLocations(ctx, 7)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, int64(2), locations[0].ID, "remote order is kept")

	created, err := c.CreateLocation(ctx, domain.LocationInput{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)

	updated, err := c.UpdateLocation(ctx, 9, domain.LocationInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	_, err = c.UpdateLocation(ctx, 10, domain.LocationInput{Name: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, c.DeleteLocation(ctx, 9))
	assert.Equal(t, http.MethodDelete, remote.last().method)
	assert.Equal(t, "/businesses/9", remote.last().path)
}

func TestPermissions(t *testing.T) {
	c, remote := newTestClient(t, staticTokens("stored"))
	ctx := context.Background()

	records, err := c.FetchPermissions(ctx, 7, 3)
	require.NoError(t, err)

	set := permission.NewSet(records)
	assert.True(t, permission.Has(set, permission.ResourceExpenses, permission.ActionView))
	assert.False(t, permission.Has(set, permission.ResourceExpenses, permission.ActionDelete))

	rec, ok := set.Lookup("view_expenses")
	require.True(t, ok)
	assert.Equal(t, permission.SourceBoth, rec.Source)

	require.NoError(t, c.GrantPermissions(ctx, 8, 3, []string{"view_invoices"}))
	assert.Equal(t, "/businesses/3/users/8/permissions/grant", remote.last().path)
	assert.Equal(t, []any{"view_invoices"}, remote.last().body["permissions"])

	require.NoError(t, c.RevokePermissions(ctx, 8, 3, []string{"view_invoices"}))
	assert.Equal(t, "/businesses/3/users/8/permissions/revoke", remote.last().path)
}

func TestEmployeesAndCatalog(t *testing.T) {
	c, _ := newTestClient(t, staticTokens("stored"))
	ctx := context.Background()

	employees, err := c.Employees(ctx, 3)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "bob", employees[0].Username)

	units, err := c.Catalog(ctx, 3, domain.CatalogUnits)
	require.NoError(t, err)
	require.Len(t, units, 1)

	_, err = c.Catalog(ctx, 3, domain.CatalogKind("invoices"))
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Catalog(ctx, 3, domain.CatalogSuppliers)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "maintenance", se.Message)
	assert.NotEmpty(t, se.RequestID)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	again, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, m.duration, again.duration, "second registration reuses the collector")

	c, _ := newTestClient(t, staticTokens("stored"), WithMetrics(m))

	_, err = c.Employees(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}
