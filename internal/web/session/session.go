// Package session keeps short lived browser state (flash messages) on fiber sessions.
// The operator identity itself is owned by the workspace, not by the browser session.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/db/dsn"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "bizadmin_session"

	// Table holds the sessions when a sql storage is used.
	Table = "sessions"

	flashKindKey    = "flash_kind"
	flashMessageKey = "flash_message"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// ErrStoreNotInitialized is returned when Init was not called.
var ErrStoreNotInitialized = errors.New("session store is not initialized")

// Store is the global session store instance.
var Store *session.Store

// Flash is a one shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// NewStorage returns the storage configured in Webserver.Session.Storage. The memory storage is
// represented by nil, which the fiber session store replaces with its own in-memory storage.
func NewStorage(cfg *config.Config) (fiber.Storage, error) {
	switch cfg.Webserver.Session.Storage {
	case "", config.DefaultSessionStorage:
		return nil, nil
	case config.EngineMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(cfg.DB),
			Table:         Table,
		}), nil
	case config.EnginePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.Postgres(cfg.DB),
			Table:         Table,
		}), nil
	default:
		return nil, config.ErrUnknownSessionStorage
	}
}

// Init initializes the session store with the provided storage backend.
func Init(storage fiber.Storage, cfg *config.Config) {
	sc := session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   true,
		CookieSameSite: "Lax",
	}

	if cfg != nil {
		sc.Expiration = cfg.Webserver.Session.ExpiryTime
		sc.CookieSecure = !cfg.DevMode
	}

	Store = session.New(sc)
}

// SetFlash stores a message for the next rendered page.
func SetFlash(c *fiber.Ctx, kind, message string) error {
	if Store == nil {
		return ErrStoreNotInitialized
	}

	sess, err := Store.Get(c)
	if err != nil {
		return err
	}

	sess.Set(flashKindKey, kind)
	sess.Set(flashMessageKey, message)

	return sess.Save()
}

// PopFlash returns the pending message and removes it, or nil when there is none.
func PopFlash(c *fiber.Ctx) (*Flash, error) {
	if Store == nil {
		return nil, ErrStoreNotInitialized
	}

	sess, err := Store.Get(c)
	if err != nil {
		return nil, err
	}

	message, _ := sess.Get(flashMessageKey).(string)
	if message == "" {
		return nil, nil
	}

	kind, _ := sess.Get(flashKindKey).(string)

	sess.Delete(flashKindKey)
	sess.Delete(flashMessageKey)

	if err = sess.Save(); err != nil {
		return nil, err
	}

	return &Flash{Kind: kind, Message: message}, nil
}

// Middleware moves a pending flash message into the "Flash" local for templates.
func Middleware(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet {
		return c.Next()
	}

	flash, err := PopFlash(c)
	if err == nil && flash != nil {
		c.Locals("Flash", flash)
	}

	return c.Next()
}
