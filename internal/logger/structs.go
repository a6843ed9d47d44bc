package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `toml:"enabled"`
	UseConsoleWriter bool
	NoColor          bool
}

// Rotation describes one lumberjack rolled log file.
type Rotation struct {
	Name       string `toml:"name"`
	MaxSize    int    `toml:"maxSize"`    // megabytes
	MaxBackups int    `toml:"maxBackups"` // files
	MaxAge     int    `toml:"maxAge"`     // days
	Compress   bool   `toml:"compress"`
}

// LogFile implements a file based logger split by level.
type LogFile struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	Access Rotation `toml:"access"`
	Error  Rotation `toml:"error"`
	Info   Rotation `toml:"info"`
	Trace  Rotation `toml:"trace"`
	Warn   Rotation `toml:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.

	// EnableAccessLogToConsole writes the web access log through the global logger.
	// Does not overrule flag Console.Enabled!
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	// Console used mainly for development.
	Console Console

	File LogFile `toml:"file"`
}
