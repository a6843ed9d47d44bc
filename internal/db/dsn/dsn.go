// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(db config.DB) string {
	switch db.GormEngine {
	case config.EngineMySQL:
		return MySQL(db)
	case config.EnginePostgres:
		return Postgres(db)
	default:
		return SQLite(db)
	}
}

// MySQL builds a go-sql-driver/mysql DSN.
func MySQL(db config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)

	if db.Extras != "" {
		out += "?" + db.Extras
	}

	return out
}

// Postgres builds a postgres connection URL. Extras are appended as query parameters.
func Postgres(db config.DB) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	extras := db.Extras
	if !strings.Contains(extras, "sslmode=") {
		if extras != "" {
			extras += "&"
		}

		extras += "sslmode=disable"
	}

	u.RawQuery = extras

	return u.String()
}

// SQLite returns the database file path. An empty path opens a private in-memory database.
func SQLite(db config.DB) string {
	if db.Path == "" {
		return ":memory:"
	}

	return db.Path
}
