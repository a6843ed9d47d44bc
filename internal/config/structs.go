package config

import (
	"time"

	"github.com/GoBizAdmin/GoBizAdmin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
	Storage    string // memory, mysql or postgres
}

// Config overall data structure.
type Config struct {
	DevMode     bool // enable dev mode for development
	API         API
	DB          DB
	Log         logger.Log
	Permissions Permissions
	Title       string
	Webserver   Webserver
}

// API holds the settings of the remote business platform.
type API struct {
	BaseURL   string        // base url of the REST API, e.g. https://api.example.com/v1
	Timeout   time.Duration // per request timeout
	UserAgent string        // user agent sent with every request
}

// Permissions holds the permission cache settings.
type Permissions struct {
	StaleAfter time.Duration // age after which a cached permission set is refetched
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic        bool    // enable static file browsing (for development purposes only)
	CacheEnabled        bool    // cache static file responses
	DisableRecover      bool    // disable recover middleware
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // base64 encoded 32 byte key, cookies are encrypted when set
	Session             Session // session settings
}
