package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/auth"
	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	fiberlog "github.com/GoBizAdmin/GoBizAdmin/internal/logger/adapter/fiber"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/catalog"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/dashboard"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/locations"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/login"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/logout"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/permissions"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/handler/preferences"
	authmiddleware "github.com/GoBizAdmin/GoBizAdmin/internal/web/middleware/auth"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/navigation"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"

	staticCacheTTL = time.Hour
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	ws           *workspace.Workspace
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// Addr returns the listen address of the configured port.
func (s *Service) Addr() string {
	return ":" + strconv.Itoa(s.cfg.Webserver.Port)
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	// Wait interrupt or shutdown request through /shutdown
	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers 200 while the service accepts traffic and 503 while it shuts down.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// Option configures the web service.
type Option func(*options)

type options struct {
	views    fiber.Views
	storage  fiber.Storage
	gatherer prometheus.Gatherer
}

// WithViews replaces the template engine.
func WithViews(v fiber.Views) Option {
	return func(o *options) { o.views = v }
}

// WithSessionStorage stores browser sessions in storage instead of memory.
func WithSessionStorage(storage fiber.Storage) Option {
	return func(o *options) { o.storage = storage }
}

// WithGatherer serves gatherer on the metrics endpoint instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, ws *workspace.Workspace, opts ...Option) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if ws == nil {
		panic("workspace cannot be nil")
	}

	o := options{gatherer: prometheus.DefaultGatherer}
	for _, opt := range opts {
		opt(&o)
	}

	if o.views == nil {
		o.views = newTemplateEngine(cfg)
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize:    8192,
			AppName:           cfg.Title,
			CaseSensitive:     true,
			Prefork:           false,
			Immutable:         true,
			Views:             o.views,
			PassLocalsToViews: true,
			ErrorHandler:      errorHandler,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
		ws:  ws,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(requestid.New())
	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// static files never change within one build
	if cfg.Webserver.CacheEnabled {
		app.Use("/static", cache.New(cache.Config{Expiration: staticCacheTTL, CacheControl: true}))
	}

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))

	if key := cfg.Webserver.CookieEncryptionKey; key != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{Key: key}))
	}

	session.Init(o.storage, cfg)
	app.Use(session.Middleware)

	// sign-in gate, then the permission set of the signed in identity for the templates
	app.Use(authmiddleware.New(ws))
	app.Use(auth.AddPermissionsToLocals(ws))
	app.Use(func(c *fiber.Ctx) error {
		set, _ := c.Locals(auth.LocalsPermissions).(*permission.Set)
		c.Locals("Menu", navigation.Menu(set))
		c.Locals("Title", cfg.Title)

		return c.Next()
	})

	// init handlers (they register their own routes with permission checks)
	for _, h := range []handler.Service{
		&login.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&locations.Handler,
		&permissions.Handler,
		&catalog.Handler,
		&preferences.Handler,
	} {
		if err := h.Init(app, cfg, ws); err != nil {
			log.Fatal().Err(err).Msgf("failed to init handler %T", h)
		}
	}

	// redirect root to dashboard
	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(dashboard.Path)
	})

	return service
}

func newTemplateEngine(cfg *config.Config) *html.Engine {
	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// Add template helper functions
	templateEngine.AddFunc("permissionName", permission.Name)

	return templateEngine
}

// errorHandler renders fiber errors (unknown routes, bad methods) with the error page.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	if renderErr := handler.RenderError(c, code, err.Error()); renderErr != nil {
		return c.Status(code).SendString(err.Error())
	}

	return nil
}
