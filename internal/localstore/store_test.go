package localstore

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoBizAdmin/GoBizAdmin/internal/db/controller/setting"
	"github.com/GoBizAdmin/GoBizAdmin/internal/db/models"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every :memory: connection is its own database

	require.NoError(t, db.AutoMigrate(models.All()...))

	return New(db), db
}

func TestToken(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.SetToken(ctx, "abc"))
	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, s.SetToken(ctx, "def"))
	token, _ = s.Token(ctx)
	assert.Equal(t, "def", token)

	require.NoError(t, s.ClearToken(ctx))
	require.NoError(t, s.ClearToken(ctx), "clearing twice is fine")

	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSelection_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	loc, err := s.LoadSelection(ctx)
	require.NoError(t, err)
	assert.Nil(t, loc)

	want := domain.Location{ID: 3, Name: "Harbor", Address: "Pier 4", City: "Kiel", OwnerID: 7, Active: true}
	require.NoError(t, s.SaveSelection(ctx, want))

	got, err := s.LoadSelection(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, s.ClearSelection(ctx))
	got, err = s.LoadSelection(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelection_CorruptIsDiscarded(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not json", value: "{broken"},
		{name: "wrong shape", value: `{"id":"three"}`},
		{name: "no id", value: `{"name":"ghost"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, db := newTestStore(t)
			ctx := context.Background()

			require.NoError(t, setting.Set(ctx, db, KeyCurrentLocation, []byte(tt.value)))

			var (
				loc *domain.Location
				err error
			)

			require.NotPanics(t, func() { loc, err = s.LoadSelection(ctx) })
			require.NoError(t, err)
			assert.Nil(t, loc)

			_, err = setting.Get(ctx, db, KeyCurrentLocation)
			require.ErrorIs(t, err, setting.ErrSettingNotFound, "corrupt entry must be removed")
		})
	}
}

func TestPreferences(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	prefs, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.False(t, prefs.ShowInactive)

	require.NoError(t, s.SavePreferences(ctx, domain.Preferences{ShowInactive: true}))
	prefs, err = s.Preferences(ctx)
	require.NoError(t, err)
	assert.True(t, prefs.ShowInactive)

	require.NoError(t, setting.Set(ctx, db, KeyPreferences, []byte("nope")))
	prefs, err = s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Preferences{}, prefs)
}
