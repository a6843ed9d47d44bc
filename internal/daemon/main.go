// Package daemon assembles the console process: database, remote client, workspace and web
// service.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/GoBizAdmin/GoBizAdmin/internal/api"
	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/db"
	"github.com/GoBizAdmin/GoBizAdmin/internal/localstore"
	"github.com/GoBizAdmin/GoBizAdmin/internal/permission"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web"
	"github.com/GoBizAdmin/GoBizAdmin/internal/web/session"
	"github.com/GoBizAdmin/GoBizAdmin/internal/workspace"
)

// ErrNilConfig is returned by New without a configuration.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	db         *gorm.DB
	sessions   fiber.Storage // nil when browser sessions are kept in memory
	workspace  *workspace.Workspace
	webService *web.Service
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	database, err := db.Open(cfg.DB, cfg.DevMode)
	if err != nil {
		return nil, err
	}

	d := &Daemon{db: database}

	// browser sessions share the configured database server unless kept in memory
	d.sessions, err = session.NewStorage(cfg)
	if err != nil {
		return nil, d.abort(err)
	}

	store := localstore.New(database)

	apiMetrics, err := api.NewMetrics(nil)
	if err != nil {
		return nil, d.abort(fmt.Errorf("register api metrics: %w", err))
	}

	cacheMetrics, err := permission.NewMetrics(nil)
	if err != nil {
		return nil, d.abort(fmt.Errorf("register permission metrics: %w", err))
	}

	client := api.New(cfg.API, store, api.WithMetrics(apiMetrics))

	d.workspace = workspace.New(client, store,
		permission.WithStaleAfter(cfg.Permissions.StaleAfter),
		permission.WithMetrics(cacheMetrics),
	)

	var opts []web.Option
	if d.sessions != nil {
		opts = append(opts, web.WithSessionStorage(d.sessions))
	}

	d.webService = web.New(cfg, d.workspace, opts...)

	return d, nil
}

// abort releases what New opened so far and returns err.
func (d *Daemon) abort(err error) error {
	if closeErr := d.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("failed to release resources after startup error")
	}

	return err
}

// Run bootstraps the workspace and serves the web interface until a shutdown signal arrives.
// Requests that arrive before the bootstrap is done wait for it.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// a failed location fetch leaves the console usable, the operator can reload
		if err := d.workspace.Start(gctx); err != nil {
			log.Warn().Err(err).Msg("workspace started with errors")
		}

		return nil
	})

	g.Go(func() error {
		return d.webService.Start(d.webService.Addr())
	})

	d.webService.WaitShutdown()
	cancel()

	err := g.Wait()

	if closeErr := d.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("failed to close daemon resources")
	}

	return err
}

// Close releases the session storage and the database connection.
func (d *Daemon) Close() error {
	var errs []error

	if d.sessions != nil {
		if err := d.sessions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session storage: %w", err))
		}
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		errs = append(errs, err)
	} else if err := sqlDB.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
