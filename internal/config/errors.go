package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyAPIBaseURL error if config api.baseurl is empty.
	ErrEmptyAPIBaseURL = errors.New("toml config api.baseurl can not be empty")

	// ErrInvalidAPIBaseURL error if config api.baseurl is not an absolute http(s) url.
	ErrInvalidAPIBaseURL = errors.New("toml config api.baseurl must be an absolute http or https url")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be one of sqlite, mysql, postgres")

	// ErrInvalidCookieEncryptionKey error if config webserver.cookieencryptionkey is not a base64 32 byte key.
	ErrInvalidCookieEncryptionKey = errors.New("toml config webserver.cookieencryptionkey must be a base64 encoded 32 byte key")

	// ErrUnknownSessionStorage error if config webserver.session.storage is not supported.
	ErrUnknownSessionStorage = errors.New("toml config webserver.session.storage must be one of memory, mysql, postgres")
)
