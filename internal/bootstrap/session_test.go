package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	readErr error
	cleared int
}

func (m *memTokens) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token, m.readErr
}

func (m *memTokens) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token

	return nil
}

func (m *memTokens) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.cleared++

	return nil
}

type fakeAuth struct {
	mu       sync.Mutex
	identity domain.Identity
	err      error
	fetches  int
	tokens   []string
	block    chan struct{}
}

func (f *fakeAuth) FetchIdentity(_ context.Context, token string) (domain.Identity, error) {
	f.mu.Lock()
	f.fetches++
	f.tokens = append(f.tokens, token)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	return f.identity, f.err
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (string, domain.Identity, error) {
	if username != "alice" || password != "secret" {
		return "", domain.Identity{}, domain.ErrUnauthorized
	}

	return "tok-alice", f.identity, nil
}

func alice() domain.Identity {
	return domain.Identity{ID: 7, Username: "alice", Email: "alice@example.com", Role: domain.RoleOwner}
}

func TestStart_NoToken(t *testing.T) {
	tokens := &memTokens{}
	auth := &fakeAuth{identity: alice()}
	s := New(tokens, auth)

	assert.Equal(t, NotStarted, s.State())
	assert.False(t, s.Ready())

	var notified []*domain.Identity
	s.OnChange(func(_ context.Context, id *domain.Identity) { notified = append(notified, id) })

	assert.Equal(t, Unauthenticated, s.Start(context.Background()))
	assert.True(t, s.Ready())
	assert.Nil(t, s.Identity())
	assert.Zero(t, auth.fetches, "no identity fetch without a token")
	require.Len(t, notified, 1)
	assert.Nil(t, notified[0])
}

func TestStart_ValidToken(t *testing.T) {
	tokens := &memTokens{token: "tok"}
	auth := &fakeAuth{identity: alice()}
	s := New(tokens, auth)

	var notified *domain.Identity
	s.OnChange(func(_ context.Context, id *domain.Identity) { notified = id })

	assert.Equal(t, Authenticated, s.Start(context.Background()))
	require.NotNil(t, s.Identity())
	assert.Equal(t, alice(), *s.Identity())
	assert.Equal(t, []string{"tok"}, auth.tokens)
	require.NotNil(t, notified)
	assert.Equal(t, int64(7), notified.ID)
	assert.Equal(t, "tok", tokens.token)
}

func TestStart_RejectedToken(t *testing.T) {
	tokens := &memTokens{token: "expired"}
	auth := &fakeAuth{err: domain.ErrUnauthorized}
	s := New(tokens, auth)

	var state State

	require.NotPanics(t, func() { state = s.Start(context.Background()) })
	assert.Equal(t, Unauthenticated, state)
	assert.Nil(t, s.Identity())
	assert.Empty(t, tokens.token)
	assert.Equal(t, 1, tokens.cleared)
}

func TestStart_NetworkFailureTreatedAsSignedOut(t *testing.T) {
	tokens := &memTokens{token: "tok"}
	auth := &fakeAuth{err: errors.New("connection refused")}
	s := New(tokens, auth)

	assert.Equal(t, Unauthenticated, s.Start(context.Background()))
	assert.Empty(t, tokens.token)
}

func TestStart_UnreadableTokenStore(t *testing.T) {
	tokens := &memTokens{readErr: errors.New("disk gone")}
	auth := &fakeAuth{identity: alice()}
	s := New(tokens, auth)

	assert.Equal(t, Unauthenticated, s.Start(context.Background()))
	assert.Zero(t, auth.fetches)
}

func TestStart_RunsOnce(t *testing.T) {
	tokens := &memTokens{token: "tok"}
	auth := &fakeAuth{identity: alice(), block: make(chan struct{})}
	s := New(tokens, auth)

	hookCalls := 0
	s.OnChange(func(context.Context, *domain.Identity) { hookCalls++ })

	const starters = 5

	var wg sync.WaitGroup

	states := make([]State, starters)
	wg.Add(starters)

	for i := range starters {
		go func() {
			defer wg.Done()

			states[i] = s.Start(context.Background())
		}()
	}

	close(auth.block)
	wg.Wait()

	for _, st := range states {
		assert.Equal(t, Authenticated, st)
	}

	assert.Equal(t, Authenticated, s.Start(context.Background()))
	assert.Equal(t, 1, auth.fetches)
	assert.Equal(t, 1, hookCalls)
}

func TestLoginLogout(t *testing.T) {
	tokens := &memTokens{}
	auth := &fakeAuth{identity: alice()}
	s := New(tokens, auth)
	s.Start(context.Background())

	var last *domain.Identity
	s.OnChange(func(_ context.Context, id *domain.Identity) { last = id })

	_, err := s.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, Unauthenticated, s.State())

	identity, err := s.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.ID)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "tok-alice", tokens.token)
	require.NotNil(t, last)

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, Unauthenticated, s.State())
	assert.Nil(t, s.Identity())
	assert.Empty(t, tokens.token)
	assert.Nil(t, last)
}

func TestExpire(t *testing.T) {
	tokens := &memTokens{token: "tok"}
	auth := &fakeAuth{identity: alice()}
	s := New(tokens, auth)
	s.Start(context.Background())

	s.Expire(context.Background())

	assert.Equal(t, Unauthenticated, s.State())
	assert.Nil(t, s.Identity())
	assert.Empty(t, tokens.token)
}
