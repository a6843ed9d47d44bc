package login

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/webtest"
)

func TestInit_NilDependencies(t *testing.T) {
	var s Service

	app, _ := webtest.NewApp()
	require.ErrorIs(t, s.Init(app, nil, nil), handler.ErrNilDependency)
}

func TestGet_RendersLoginPage(t *testing.T) {
	remote := webtest.NewRemote()
	app, views := webtest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, webtest.NewConfig(), webtest.NewWorkspace(t, remote, false)))

	resp := webtest.Get(t, app, Path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	name, _ := views.Last()
	assert.Equal(t, TemplateName, name)
}

func TestPost(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		remoteErr    error
		wantStatus   int
		wantBody     string
		wantSignedIn bool
	}{
		{
			name:         "valid credentials sign in and redirect",
			form:         url.Values{"username": {"alice"}, "password": {webtest.Password}},
			wantStatus:   http.StatusFound,
			wantSignedIn: true,
		},
		{
			name:       "wrong password renders error",
			form:       url.Values{"username": {"alice"}, "password": {"nope"}},
			wantStatus: http.StatusOK,
			wantBody:   ErrInvalidCredentials.Error(),
		},
		{
			name:       "missing password fails validation",
			form:       url.Values{"username": {"alice"}},
			wantStatus: http.StatusOK,
			wantBody:   ErrInvalidFormData.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := webtest.NewRemote()
			ws := webtest.NewWorkspace(t, remote, false)
			app, _ := webtest.NewApp()

			var s Service
			require.NoError(t, s.Init(app, webtest.NewConfig(), ws))

			resp := webtest.PostForm(t, app, Path, tt.form)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, handler.HomePath, resp.Header.Get("Location"))
			}

			if tt.wantBody != "" {
				assert.Contains(t, webtest.Body(t, resp), tt.wantBody)
			}

			assert.Equal(t, tt.wantSignedIn, ws.Identity() != nil)
		})
	}
}

func TestPost_SignedInLoadsLocations(t *testing.T) {
	remote := webtest.NewRemote()
	ws := webtest.NewWorkspace(t, remote, false)
	app, _ := webtest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, webtest.NewConfig(), ws))

	webtest.PostForm(t, app, Path, url.Values{"username": {"alice"}, "password": {webtest.Password}})

	current := ws.CurrentLocation()
	require.NotNil(t, current)
	assert.Equal(t, int64(1), current.ID)
	assert.Len(t, ws.Locations().Locations, 2)
}

func TestPost_PlatformUnavailable(t *testing.T) {
	remote := webtest.NewRemote()
	remote.LoginErr = errors.New("connection refused")

	ws := webtest.NewWorkspace(t, remote, false)
	app, _ := webtest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, webtest.NewConfig(), ws))

	resp := webtest.PostForm(t, app, Path, url.Values{"username": {"alice"}, "password": {webtest.Password}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), ErrPlatformUnavailable.Error())
	assert.Nil(t, ws.Identity())
}

func TestPost_SessionRejectedWhileLoadingLocations(t *testing.T) {
	remote := webtest.NewRemote()
	ws := webtest.NewWorkspace(t, remote, false)
	app, _ := webtest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, webtest.NewConfig(), ws))

	remote.Fail(domain.ErrUnauthorized)

	resp := webtest.PostForm(t, app, Path, url.Values{"username": {"alice"}, "password": {webtest.Password}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), ErrSessionRejected.Error())
	assert.Nil(t, ws.Identity())
}
