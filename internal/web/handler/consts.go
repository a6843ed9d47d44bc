package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// LoginPath is the path of the login page.
	LoginPath = RootPath + "login"

	// HomePath is where signed in operators land.
	HomePath = RootPath + "dashboard"

	// ErrorTemplate renders error pages.
	ErrorTemplate = "errors/error"

	// ErrNilAppCfgWsMsg is used if app, cfg or ws is nil.
	ErrNilAppCfgWsMsg = "app, cfg or workspace is nil"
)
