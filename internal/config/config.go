// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// EnvConfigJSON names the environment variable holding a JSON document that is merged over
// the TOML file.
const EnvConfigJSON = "GO_BIZADMIN_CONFIG_JSON"

// Defaults applied by ReadConfig when a value is not set.
const (
	DefaultShutDownTime   = 5
	DefaultAPITimeout     = 15 * time.Second
	DefaultAPIUserAgent   = "GoBizAdmin"
	DefaultStaleAfter     = 5 * time.Minute
	DefaultSQLitePath     = "./bizadmin.db"
	DefaultSessionExpiry  = 24 * time.Hour
	DefaultSessionStorage = "memory"

	cookieKeyLen = 32
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	err = validate(&c)

	return c, err
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config from env "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the console can not start without and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.API.BaseURL == "" {
		return errors.Wrap(ErrEmptyAPIBaseURL, invalidErrMessage)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrap(ErrInvalidAPIBaseURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	switch c.Webserver.Session.Storage {
	case "":
		c.Webserver.Session.Storage = DefaultSessionStorage
	case DefaultSessionStorage, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownSessionStorage, invalidErrMessage)
	}

	if key := c.Webserver.CookieEncryptionKey; key != "" {
		if raw, err := base64.StdEncoding.DecodeString(key); err != nil || len(raw) != cookieKeyLen {
			return errors.Wrap(ErrInvalidCookieEncryptionKey, invalidErrMessage)
		}
	}

	if c.DB.GormEngine == EngineSQLite && c.DB.Path == "" {
		c.DB.Path = DefaultSQLitePath
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = DefaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = DefaultSessionExpiry
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultAPIUserAgent
	}

	if c.Permissions.StaleAfter == 0 {
		c.Permissions.StaleAfter = DefaultStaleAfter
	}

	return nil
}
