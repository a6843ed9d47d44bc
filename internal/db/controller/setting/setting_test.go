package setting

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoBizAdmin/GoBizAdmin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every :memory: connection is its own database

	err = db.AutoMigrate(models.All()...)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Setting{Name: "auth.token", Value: []byte("abc")}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			settingName:   "auth.token",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "successful get",
			dbParam:       db,
			settingName:   "auth.token",
			expectedValue: []byte("abc"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Get(ctx, tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, got.Value)
		})
	}
}

func TestSet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.ErrorIs(t, Set(ctx, nil, "a", nil), ErrDBNil)
	require.ErrorIs(t, Set(ctx, db, "", nil), ErrSettingNameEmpty)

	require.NoError(t, Set(ctx, db, "ui.preferences", []byte(`{"show_inactive":false}`)))
	require.NoError(t, Set(ctx, db, "ui.preferences", []byte(`{"show_inactive":true}`)))

	got, err := Get(ctx, db, "ui.preferences")
	require.NoError(t, err)
	assert.JSONEq(t, `{"show_inactive":true}`, string(got.Value))

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "upsert must not duplicate rows")
}

func TestDeleteByName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.ErrorIs(t, DeleteByName(ctx, nil, "a"), ErrDBNil)
	require.ErrorIs(t, DeleteByName(ctx, db, ""), ErrSettingNameEmpty)
	require.ErrorIs(t, DeleteByName(ctx, db, "missing"), ErrSettingNotFound)

	require.NoError(t, Set(ctx, db, "auth.token", []byte("abc")))
	require.NoError(t, DeleteByName(ctx, db, "auth.token"))

	_, err := Get(ctx, db, "auth.token")
	require.ErrorIs(t, err, ErrSettingNotFound)
}
