// Package localstore keeps the client-local durable state of the console: the credential token,
// the current location snapshot and the UI preferences. Values live in the settings table.
//
// Unreadable entries are never returned as errors. A corrupt location snapshot or preference
// document is logged, removed and read as absent.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoBizAdmin/GoBizAdmin/internal/db/controller/setting"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

// Keys of the persisted entries.
const (
	KeyToken           = "auth.token"
	KeyCurrentLocation = "session.current_location"
	KeyPreferences     = "ui.preferences"
)

// Store persists console state through gorm.
type Store struct {
	db *gorm.DB
}

// New returns a store on db. The settings table must exist.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	row, err := setting.Get(ctx, s.db, key)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}

	return row.Value, true, nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	err := setting.DeleteByName(ctx, s.db, key)
	if err != nil && !errors.Is(err, setting.ErrSettingNotFound) {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

// Token returns the stored credential token or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, _, err := s.get(ctx, KeyToken)

	return string(v), err
}

// SetToken stores the credential token.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}

	if err := setting.Set(ctx, s.db, KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("write %s: %w", KeyToken, err)
	}

	return nil
}

// ClearToken removes the credential token. Removing an absent token is not an error.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.remove(ctx, KeyToken)
}

// LoadSelection returns the persisted current location snapshot or nil.
func (s *Store) LoadSelection(ctx context.Context) (*domain.Location, error) {
	v, ok, err := s.get(ctx, KeyCurrentLocation)
	if err != nil || !ok {
		return nil, err
	}

	var loc domain.Location
	if err = json.Unmarshal(v, &loc); err != nil || loc.ID == 0 {
		log.Warn().Err(err).Str("key", KeyCurrentLocation).Msg("discarding unreadable location snapshot")
		s.discard(ctx, KeyCurrentLocation)

		return nil, nil
	}

	return &loc, nil
}

// SaveSelection persists the full location as the current selection.
func (s *Store) SaveSelection(ctx context.Context, loc domain.Location) error {
	v, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location snapshot: %w", err)
	}

	if err = setting.Set(ctx, s.db, KeyCurrentLocation, v); err != nil {
		return fmt.Errorf("write %s: %w", KeyCurrentLocation, err)
	}

	return nil
}

// ClearSelection removes the persisted selection.
func (s *Store) ClearSelection(ctx context.Context) error {
	return s.remove(ctx, KeyCurrentLocation)
}

// Preferences returns the stored UI preferences, the zero value when none are stored.
func (s *Store) Preferences(ctx context.Context) (domain.Preferences, error) {
	var prefs domain.Preferences

	v, ok, err := s.get(ctx, KeyPreferences)
	if err != nil || !ok {
		return prefs, err
	}

	if err = json.Unmarshal(v, &prefs); err != nil {
		log.Warn().Err(err).Str("key", KeyPreferences).Msg("discarding unreadable preferences")
		s.discard(ctx, KeyPreferences)

		return domain.Preferences{}, nil
	}

	return prefs, nil
}

// SavePreferences stores the UI preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	v, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	if err = setting.Set(ctx, s.db, KeyPreferences, v); err != nil {
		return fmt.Errorf("write %s: %w", KeyPreferences, err)
	}

	return nil
}

func (s *Store) discard(ctx context.Context, key string) {
	if err := s.remove(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to remove unreadable entry")
	}
}
