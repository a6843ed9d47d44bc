// Package db opens the client-local gorm database and migrates its schema.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/db/dsn"
	"github.com/GoBizAdmin/GoBizAdmin/internal/db/models"
)

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg config.DB) (gorm.Dialector, error) {
	switch cfg.GormEngine {
	case config.EngineSQLite, "":
		return sqlite.Open(dsn.SQLite(cfg)), nil
	case config.EngineMySQL:
		return gormmysql.Open(dsn.MySQL(cfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Postgres(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownGormEngine, cfg.GormEngine)
	}
}

// Open connects to the configured database and migrates all models.
func Open(cfg config.DB, devMode bool) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Silent
	if devMode {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.GormEngine, err)
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}
